package escrow

import (
	"context"
	"errors"
	"fmt"

	"github.com/worklance/worklance-backend/internal/models"
)

// ErrEmptyEscrowID возвращается, когда у сделки не зафиксирован депозит.
var ErrEmptyEscrowID = errors.New("escrow id is empty")

// Adapter выдаёт параметры вызова контракта для выплаты по этапу.
type Adapter interface {
	GetReleaseDescriptor(ctx context.Context, escrowID string) (models.ReleaseDescriptor, error)
}

// StaticAdapter строит дескриптор по фиксированному адресу контракта из конфигурации.
// Сеть при этом не опрашивается.
type StaticAdapter struct {
	contractAddress string
	functionName    string
}

// NewStaticAdapter создаёт адаптер с заданными параметрами контракта.
func NewStaticAdapter(contractAddress, functionName string) *StaticAdapter {
	if functionName == "" {
		functionName = "release"
	}
	return &StaticAdapter{
		contractAddress: contractAddress,
		functionName:    functionName,
	}
}

// GetReleaseDescriptor возвращает адрес, имя функции и аргументы вызова.
func (a *StaticAdapter) GetReleaseDescriptor(_ context.Context, escrowID string) (models.ReleaseDescriptor, error) {
	if escrowID == "" {
		return models.ReleaseDescriptor{}, ErrEmptyEscrowID
	}
	if a.contractAddress == "" {
		return models.ReleaseDescriptor{}, fmt.Errorf("escrow adapter: contract address is not configured")
	}

	return models.ReleaseDescriptor{
		ContractAddress: a.contractAddress,
		FunctionName:    a.functionName,
		Arguments:       []string{escrowID},
	}, nil
}
