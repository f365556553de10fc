package dagepoch

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateEpochAndSatisfy(t *testing.T) {
	m := NewManager()
	h, err := m.CreateEpoch(1, []string{"peer-a", "peer-b"})
	require.NoError(t, err)
	require.Equal(t, uint64(1), h.BlockNumber())

	require.False(t, m.SatisfyEpoch(h))

	m.NotePresent("peer-a")
	require.False(t, m.SatisfyEpoch(h))

	m.NotePresent("peer-b")
	require.True(t, m.SatisfyEpoch(h))
}

func TestSatisfyEpochNilHandleIsVacuouslyTrue(t *testing.T) {
	m := NewManager()
	require.True(t, m.SatisfyEpoch(nil))
}

func TestCommitAndRevert(t *testing.T) {
	m := NewManager()
	h1, _ := m.CreateEpoch(1, nil)
	h2, _ := m.CreateEpoch(2, nil)

	m.CommitEpoch(h1)
	require.Equal(t, h1, m.CurrentEpoch())

	m.CommitEpoch(h2)
	require.Equal(t, h2, m.CurrentEpoch())

	require.True(t, m.RevertToEpoch(1))
	require.Equal(t, h1, m.CurrentEpoch())

	require.True(t, m.RevertToEpoch(0))
	require.Nil(t, m.CurrentEpoch())
}

func TestRevertToUnknownEpochFails(t *testing.T) {
	m := NewManager()
	require.False(t, m.RevertToEpoch(99))
}

func TestCreateEpochReusesVerticesAcrossCalls(t *testing.T) {
	m := NewManager()
	_, err := m.CreateEpoch(1, []string{"peer-a"})
	require.NoError(t, err)
	// Re-declaring the same block number with overlapping node ids must not
	// error on the already-registered vertex.
	_, err = m.CreateEpoch(1, []string{"peer-a", "peer-b"})
	require.NoError(t, err)
}

func TestAdapterDeclareFlowsIntoCreateEpoch(t *testing.T) {
	a := NewAdapter()
	a.Declare(5, []string{"peer-x"})

	h, err := a.CreateEpoch(5)
	require.NoError(t, err)
	require.Equal(t, uint64(5), h.BlockNumber())
	require.False(t, a.SatisfyEpoch(h))

	a.NotePresent("peer-x")
	require.True(t, a.SatisfyEpoch(h))
}

func TestAdapterCreateEpochWithoutDeclareHasNoRequirements(t *testing.T) {
	a := NewAdapter()
	h, err := a.CreateEpoch(7)
	require.NoError(t, err)
	require.True(t, a.SatisfyEpoch(h))
}

func TestAdapterSatisfyEpochTreatsForeignHandleAsSatisfied(t *testing.T) {
	a := NewAdapter()
	require.True(t, a.SatisfyEpoch(fakeHandle{}))
}

type fakeHandle struct{}

func (fakeHandle) BlockNumber() uint64 { return 0 }
