// Package selftest exercises the storage chips with a write/read-back
// pattern, the way the bring-up firmware checks a fresh board.
package selftest

import (
	"bytes"

	"f4disco/drivers/bl24cm1a"
	"f4disco/drivers/fm25q08b"
	"f4disco/errcode"
	"f4disco/x/conv"
)

// ReadyAttempts bounds the EEPROM presence probe.
const ReadyAttempts = 10

// Pattern returns n bytes counting up from seed.
func Pattern(n int, seed byte) []byte {
	p := make([]byte, n)
	for i := range p {
		p[i] = seed + byte(i)
	}
	return p
}

// Logf receives progress lines.
type Logf func(line string)

// EEPROM probes the chip, writes pattern at off and reads it back.
func EEPROM(dev *bl24cm1a.Device, off int64, pattern []byte, log Logf) error {
	if err := dev.WaitReady(ReadyAttempts); err != nil {
		return err
	}
	log("[selftest] eeprom ready")
	if _, err := dev.WriteAt(pattern, off); err != nil {
		return err
	}
	got := make([]byte, len(pattern))
	if _, err := dev.ReadAt(got, off); err != nil {
		return err
	}
	if !bytes.Equal(got, pattern) {
		return mismatch("selftest.eeprom", got, pattern)
	}
	log("[selftest] eeprom verified " + hexLen(len(pattern)) + " bytes")
	return nil
}

// Flash identifies the chip, erases the sector at addr, programs pattern
// and reads it back.
func Flash(dev *fm25q08b.Device, addr uint32, pattern []byte, log Logf) error {
	if err := dev.Reset(); err != nil {
		return err
	}
	id, err := dev.JEDECID()
	if err != nil {
		return err
	}
	if id == 0 || id == 0xFFFFFF {
		return &errcode.E{C: errcode.NotFound, Op: "selftest.flash", Msg: "no JEDEC id"}
	}
	var hb [8]byte
	log("[selftest] flash JEDEC " + string(conv.U32Hex(hb[:], id)[2:]))
	if uid, err := dev.UniqueID(); err == nil {
		log("[selftest] flash UID " + string(conv.BytesHex(nil, uid[:])))
	}

	if err := dev.Erase(int64(addr), int64(len(pattern))); err != nil {
		return err
	}
	if _, err := dev.WriteAt(pattern, int64(addr)); err != nil {
		return err
	}
	got := make([]byte, len(pattern))
	if _, err := dev.ReadAt(got, int64(addr)); err != nil {
		return err
	}
	if !bytes.Equal(got, pattern) {
		return mismatch("selftest.flash", got, pattern)
	}
	log("[selftest] flash verified " + hexLen(len(pattern)) + " bytes")
	return nil
}

func mismatch(op string, got, want []byte) error {
	for i := range want {
		if got[i] != want[i] {
			var hb [8]byte
			return &errcode.E{C: errcode.VerifyFailed, Op: op, Msg: "at 0x" + string(conv.U32Hex(hb[:], uint32(i)))}
		}
	}
	return errcode.VerifyFailed
}

func hexLen(n int) string {
	var hb [8]byte
	return "0x" + string(conv.U32Hex(hb[:], uint32(n)))
}
