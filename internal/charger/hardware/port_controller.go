// Package hardware models the physical relay/contactor layer a real DC fast
// charger would have between its market agent and its charging ports: one
// Modbus holding register per port, written by Energize/Deenergize and read
// back by IsEnergized. It has no bearing on market semantics. The charger
// agent does not call it; composition.Build only opens a controller per
// charger when ModbusAddr is set and logs a connection failure.
//
// Grounded on devskill-org-miners-scheduler's goburrow/modbus usage for
// polling physical miner/PV hardware over Modbus TCP.
package hardware

import (
	"fmt"

	"github.com/goburrow/modbus"
)

// energizedValue/deenergizedValue are the two register states a port can
// hold: contactor closed (delivering current) or open.
const (
	energizedValue   uint16 = 1
	deenergizedValue uint16 = 0
)

// PortController drives a simulated Modbus TCP register map for a
// charger's physical ports, one holding register per port.
type PortController struct {
	handler *modbus.TCPClientHandler
	client  modbus.Client
	ports   int
}

// NewPortController connects to a Modbus TCP endpoint (a simulator in
// tests, a real PLC in deployment) and prepares ports holding registers
// starting at address 0.
func NewPortController(addr string, ports int) (*PortController, error) {
	handler := modbus.NewTCPClientHandler(addr)
	if err := handler.Connect(); err != nil {
		return nil, fmt.Errorf("hardware: connect to %s: %w", addr, err)
	}
	return &PortController{
		handler: handler,
		client:  modbus.NewClient(handler),
		ports:   ports,
	}, nil
}

// Close releases the underlying Modbus TCP connection.
func (p *PortController) Close() error {
	return p.handler.Close()
}

// Energize closes the contactor for port (0-indexed), making it deliver
// current.
func (p *PortController) Energize(port int) error {
	return p.writePort(port, energizedValue)
}

// Deenergize opens the contactor for port, stopping current delivery.
func (p *PortController) Deenergize(port int) error {
	return p.writePort(port, deenergizedValue)
}

// IsEnergized reports whether port's contactor is currently closed.
func (p *PortController) IsEnergized(port int) (bool, error) {
	if port < 0 || port >= p.ports {
		return false, fmt.Errorf("hardware: port %d out of range [0,%d)", port, p.ports)
	}
	regs, err := p.client.ReadHoldingRegisters(uint16(port), 1)
	if err != nil {
		return false, fmt.Errorf("hardware: read port %d: %w", port, err)
	}
	if len(regs) < 2 {
		return false, fmt.Errorf("hardware: short register read for port %d", port)
	}
	value := uint16(regs[0])<<8 | uint16(regs[1])
	return value == energizedValue, nil
}

func (p *PortController) writePort(port int, value uint16) error {
	if port < 0 || port >= p.ports {
		return fmt.Errorf("hardware: port %d out of range [0,%d)", port, p.ports)
	}
	_, err := p.client.WriteSingleRegister(uint16(port), value)
	if err != nil {
		return fmt.Errorf("hardware: write port %d: %w", port, err)
	}
	return nil
}
