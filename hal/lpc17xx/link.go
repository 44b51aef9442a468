//go:build lpc1768

package lpc17xx

import "github.com/ms-iot/busses-tester/hal"

func (d *Device) LinkStatus() hal.LinkStatus {
	sr := ssp0.SR.Get()
	var s hal.LinkStatus
	if sr&sspSRTxEmpty != 0 {
		s |= hal.LinkTxEmpty
	}
	if sr&sspSRTxNotFull != 0 {
		s |= hal.LinkTxNotFull
	}
	if sr&sspSRRxNotEmpty != 0 {
		s |= hal.LinkRxNotEmpty
	}
	return s
}

func (d *Device) WriteLink(v uint16) { ssp0.DR.Set(uint32(v)) }

func (d *Device) ReadLink() uint16 { return uint16(ssp0.DR.Get()) }

// ConfigureLink reprograms polarity, phase and word width. The port is held
// disabled while CR0 changes and comes back up in slave role.
func (d *Device) ConfigureLink(cfg hal.LinkConfig) {
	cr0 := uint32(sspCR0FRFSPI)
	if cfg.ClockIdleHigh {
		cr0 |= sspCR0CPOLHigh
	}
	if cfg.SampleSecondEdge {
		cr0 |= sspCR0CPHASecond
	}
	cr0 |= uint32(cfg.WordBits - 1) // DSS field

	ssp0.CR1.Set(sspCR1Slave)
	ssp0.CR0.Set(cr0)
	ssp0.CR1.Set(sspCR1Enable | sspCR1Slave)
}

// ChipSelectAsserted reads the select line's level off the pin; the port has
// no status bit for it. Active low.
func (d *Device) ChipSelectAsserted() bool {
	return fio0.PIN.Get()&(1<<csPin) == 0
}
