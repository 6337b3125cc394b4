package memory_test

import (
	"testing"

	"github.com/aretw0/vemulator/pkg/adapters/memory"
	contract "github.com/aretw0/vemulator/pkg/ports/tests"
	"github.com/stretchr/testify/assert"
)

func TestTransport_OutputContract(t *testing.T) {
	tr := memory.New()
	contract.OutputContractTest(t, tr, tr.Output)
}

func TestTransport_InputContract(t *testing.T) {
	tr := memory.New()
	contract.InputContractTest(t, tr, tr.Feed)
}

func TestTransport_PartialLine(t *testing.T) {
	tr := memory.New()
	tr.Feed(":154")
	line, err := tr.ReadLine()
	assert.NoError(t, err)
	assert.Equal(t, ":154", string(line))
	assert.False(t, tr.HasData())
}

func TestTransport_Closed(t *testing.T) {
	tr := memory.New()
	_ = tr.Close()
	assert.False(t, tr.Available())
	_, err := tr.Write([]byte("x"))
	assert.ErrorIs(t, err, memory.ErrClosed)
}
