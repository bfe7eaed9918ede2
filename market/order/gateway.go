package order

import (
	"fmt"

	"github.com/google/uuid"
)

// ChargeResult is what a gateway reports back for an approved charge.
type ChargeResult struct {
	Status    Status
	Reference string
}

// Gateway is the payment strategy. Implementations decide whether a
// charge settles immediately or stays pending; a declined charge is an
// error.
type Gateway interface {
	Name() string
	Charge(o *Order) (ChargeResult, error)
}

// ErrDeclined is returned by gateways refusing a charge.
var ErrDeclined = fmt.Errorf("payment declined")

// MockGateway approves every charge immediately. It stands in for a
// real card processor.
type MockGateway struct{}

// Name implements Gateway.
func (MockGateway) Name() string { return "mock" }

// Charge implements Gateway.
func (MockGateway) Charge(o *Order) (ChargeResult, error) {
	return ChargeResult{
		Status:    StatusPaid,
		Reference: "mock-" + uuid.NewString(),
	}, nil
}

// TransferGateway records the charge as pending manual bank transfer.
type TransferGateway struct{}

// Name implements Gateway.
func (TransferGateway) Name() string { return "transfer" }

// Charge implements Gateway.
func (TransferGateway) Charge(o *Order) (ChargeResult, error) {
	return ChargeResult{
		Status:    StatusPending,
		Reference: "transfer-" + uuid.NewString(),
	}, nil
}

// DecliningGateway refuses every charge. Used to exercise the decline
// path without a real processor.
type DecliningGateway struct{}

// Name implements Gateway.
func (DecliningGateway) Name() string { return "decline" }

// Charge implements Gateway.
func (DecliningGateway) Charge(o *Order) (ChargeResult, error) {
	return ChargeResult{}, ErrDeclined
}

// GatewayFor returns the gateway a configuration name selects.
func GatewayFor(name string) (Gateway, error) {
	switch name {
	case "mock", "":
		return MockGateway{}, nil
	case "transfer":
		return TransferGateway{}, nil
	case "decline":
		return DecliningGateway{}, nil
	default:
		return nil, fmt.Errorf("unknown payment gateway %q", name)
	}
}
