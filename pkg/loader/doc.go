// SPDX-License-Identifier: Apache-2.0
// Copyright (c) 2025 Kaz Walker, Thermoquad

// Package loader drives a firmware upload to the SCuM programmer.
//
// A Session owns one transport.Transport for its lifetime. Run frames the
// image, performs the handshake for the selected protocol and boots the
// chip:
//
//	fw, _ := scum.LoadFirmware(afero.NewOsFs(), "blink.bin")
//	t, _ := transport.OpenSerial("/dev/ttyACM0", scum.FramedBaudRate)
//	s := loader.NewSession(scum.ProtocolFramed, t, fw,
//		loader.WithProgress(func(p loader.Progress) {
//			fmt.Printf("%d/%d\n", p.Transferred, p.Total)
//		}))
//	res, err := s.Run()
//
// Run is synchronous and never retries. Any rejection or transport failure
// aborts the session, closes the transport and is returned as a
// *SessionError naming the failed step.
package loader
