package coordinator

import (
	"github.com/XiaodongWuFetch/ledger/core/ancestry"
	"github.com/XiaodongWuFetch/ledger/core/execstate"
	"github.com/XiaodongWuFetch/ledger/core/types"
)

// fakeChain is an in-memory MainChain good enough to drive the coordinator
// deterministically in tests: it stores blocks by hash and reports as
// heaviest whichever hash was last set via setHeaviest or added via AddBlock.
type fakeChain struct {
	blocks   map[types.Digest]*types.Block
	heaviest types.Digest
	paths    map[[2]types.Digest][]*types.Block
	pathErr  error
}

func newFakeChain() *fakeChain {
	return &fakeChain{
		blocks: make(map[types.Digest]*types.Block),
		paths:  make(map[[2]types.Digest][]*types.Block),
	}
}

func (c *fakeChain) add(b *types.Block) {
	c.blocks[b.Hash] = b
}

func (c *fakeChain) setHeaviest(h types.Digest) { c.heaviest = h }

func (c *fakeChain) GetHeaviestBlock() *types.Block {
	return c.blocks[c.heaviest]
}

func (c *fakeChain) GetHeaviestBlockHash() types.Digest { return c.heaviest }

func (c *fakeChain) Get(hash types.Digest) (*types.Block, bool) {
	b, ok := c.blocks[hash]
	return b, ok
}

func (c *fakeChain) AddBlock(b *types.Block) (AddBlockResult, error) {
	if _, ok := c.blocks[b.Hash]; ok {
		return AlreadyPresent, nil
	}
	c.blocks[b.Hash] = b
	c.heaviest = b.Hash
	return Added, nil
}

func (c *fakeChain) RemoveBlock(hash types.Digest) { delete(c.blocks, hash) }

func (c *fakeChain) GetPathToCommonAncestor(tip, target types.Digest, limit int, policy ancestry.TruncationPolicy) ([]*types.Block, error) {
	if c.pathErr != nil {
		return nil, c.pathErr
	}
	return c.paths[[2]types.Digest{tip, target}], nil
}

func (c *fakeChain) Reset() {}

// fakeState is an in-memory StateStore keyed by (root, number) commits.
type fakeState struct {
	current   types.MerkleRoot
	lastRoot  types.MerkleRoot
	committed map[uint64]types.MerkleRoot
	known     map[types.MerkleRoot]uint64
	revertOK  bool
}

func newFakeState() *fakeState {
	return &fakeState{
		committed: map[uint64]types.MerkleRoot{0: types.GenesisMerkleRoot},
		known:     map[types.MerkleRoot]uint64{types.GenesisMerkleRoot: 0},
		revertOK:  true,
	}
}

func (s *fakeState) CurrentHash() types.MerkleRoot    { return s.current }
func (s *fakeState) LastCommitHash() types.MerkleRoot { return s.lastRoot }

func (s *fakeState) HashExists(root types.MerkleRoot, number uint64) bool {
	n, ok := s.known[root]
	return ok && n == number
}

func (s *fakeState) RevertToHash(root types.MerkleRoot, number uint64) bool {
	if !s.revertOK {
		return false
	}
	s.current = root
	return true
}

func (s *fakeState) Commit(number uint64) {
	s.committed[number] = s.current
	s.known[s.current] = number
	s.lastRoot = s.current
}

// fakeEngine is an in-memory ExecutionEngine whose GetState sequence is
// scripted per test. It holds a reference to the state store it drives, the
// way a real execution engine applies a block's transactions against the
// state store as a side effect of Execute.
type fakeEngine struct {
	state         *fakeState
	lastProcessed types.Digest
	states        []execstate.EngineState
	idx           int
	scheduleOK    bool
	executed      []*types.Block
	badRootFor    types.Digest // if set, Execute(b) for this hash produces a wrong root
}

func newFakeEngine(state *fakeState) *fakeEngine {
	return &fakeEngine{state: state, scheduleOK: true}
}

func (e *fakeEngine) Execute(b *types.Block) ScheduleResult {
	e.executed = append(e.executed, b)
	if !e.scheduleOK {
		return ScheduleRejected
	}
	if b.Hash == e.badRootFor {
		e.state.current = root("not-what-was-declared")
	} else {
		e.state.current = b.MerkleHash
	}
	e.lastProcessed = b.Hash
	return Scheduled
}

func (e *fakeEngine) GetState() execstate.EngineState {
	if e.idx >= len(e.states) {
		if len(e.states) == 0 {
			return execstate.EngineIdle
		}
		return e.states[len(e.states)-1]
	}
	s := e.states[e.idx]
	e.idx++
	return s
}

func (e *fakeEngine) SetLastProcessedBlock(d types.Digest) { e.lastProcessed = d }
func (e *fakeEngine) LastProcessedBlock() types.Digest     { return e.lastProcessed }

// fakeTxIndex reports every digest in `present` as locally available.
type fakeTxIndex struct {
	present map[types.Digest]bool
	asked   [][]types.Digest
}

func newFakeTxIndex() *fakeTxIndex {
	return &fakeTxIndex{present: make(map[types.Digest]bool)}
}

func (t *fakeTxIndex) HasTransaction(d types.Digest) bool { return t.present[d] }

func (t *fakeTxIndex) IssueCallForMissingTxs(digests []types.Digest) {
	t.asked = append(t.asked, digests)
}

// fakePacker always "packs" an already-complete block (tests set
// next_block's slices beforehand; GenerateBlock is a no-op unless failErr
// is set).
type fakePacker struct {
	failErr error
}

func (p *fakePacker) GenerateBlock(next *types.Block, numLanes uint64, numSlices int, chain MainChain) error {
	return p.failErr
}

// fakeSink records every block it receives.
type fakeSink struct {
	blocks []*types.Block
}

func (s *fakeSink) OnBlock(b *types.Block) { s.blocks = append(s.blocks, b) }

// fakeStatus records every digest marked executed.
type fakeStatus struct {
	executed map[types.Digest]int
}

func newFakeStatus() *fakeStatus {
	return &fakeStatus{executed: make(map[types.Digest]int)}
}

func (s *fakeStatus) Update(d types.Digest, status TxStatus) {
	if status == TxExecuted {
		s.executed[d]++
	}
}

// fakeMiner finds a proof on whichever call index matches foundAt.
type fakeMiner struct {
	calls   int
	foundAt int
}

func (m *fakeMiner) Mine(b *types.Block, budget uint64) bool {
	m.calls++
	return m.calls > m.foundAt
}
