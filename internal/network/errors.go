package network

import "errors"

var (
	ErrDuplicateID      = errors.New("duplicate id")
	ErrUnknownEquipment = errors.New("unknown equipment")
	ErrUnknownTerminal  = errors.New("unknown terminal")
	ErrUnknownFeeder    = errors.New("unknown feeder")
	ErrNotInNetwork     = errors.New("terminal does not belong to this network")
)
