package ports

import (
	"context"
	"testing"

	"github.com/aretw0/vemulator/pkg/bus"
	"github.com/aretw0/vemulator/pkg/domain"
	"github.com/stretchr/testify/require"
)

// RunValueMirrorContract verifies that a ValueMirror accepts both kinds of
// store events. read returns what the mirror recorded for a display name, so
// the backing system can be inspected without the suite knowing about it.
func RunValueMirrorContract(t *testing.T, m ValueMirror, read func(name string) (string, bool)) {
	ctx := context.Background()

	t.Run("Display value", func(t *testing.T) {
		err := m.Mirror(ctx, bus.Event{
			Topic: bus.TopicFieldUpdate,
			Key:   domain.TextKey("V"),
			Value: domain.Int(12800),
		})
		require.NoError(t, err)

		got, ok := read("V")
		require.True(t, ok, "mirror should record the display value")
		require.Equal(t, "12800", got)
	})

	t.Run("Hex value", func(t *testing.T) {
		err := m.Mirror(ctx, bus.Event{
			Topic: bus.TopicHexUpdate,
			Key:   domain.HexKey(0x1234),
			Hex:   "0FF0",
		})
		require.NoError(t, err)

		got, ok := read("0x1234")
		require.True(t, ok, "mirror should record the wire value")
		require.Equal(t, "0FF0", got)
	})
}
