package consts

const (
	Name    = "crank"
	Version = "v0.1.0"

	HashLen = 32
)

const MaxUint8 = ^uint8(0)
