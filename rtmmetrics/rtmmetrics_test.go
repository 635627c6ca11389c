package rtmmetrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/require"
)

func TestMustRegisterAddsEveryCollector(t *testing.T) {
	reg := prometheus.NewRegistry()
	MustRegister(reg)

	// a vector collector only gathers once it has at least one child
	CommitsRO.WithLabelValues("0")
	CommitsRW.WithLabelValues("0")
	Aborts.WithLabelValues("0", "conflict")
	ActiveAlgorithm.WithLabelValues("NOrec")

	families, err := reg.Gather()
	require.NoError(t, err)
	require.Len(t, families, 4)
}

func TestSetActiveAlgorithmFlipsExactlyOneGauge(t *testing.T) {
	names := []string{"OrecEager", "NOrec", "ByteEager"}
	SetActiveAlgorithm(names, "NOrec")

	for _, name := range names {
		m := &dto.Metric{}
		require.NoError(t, ActiveAlgorithm.WithLabelValues(name).Write(m))
		if name == "NOrec" {
			require.Equal(t, float64(1), m.GetGauge().GetValue())
		} else {
			require.Equal(t, float64(0), m.GetGauge().GetValue())
		}
	}
}
