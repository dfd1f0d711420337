package vgm

// ParserConfig fixes the ceilings a parse session may not cross. The zero
// value is not useful; construct configs through one of the presets and
// adjust fields as needed. Configs are plain values and never mutated by
// the parser.
type ParserConfig struct {
	// MaxCommands bounds the total number of commands in one stream.
	MaxCommands uint64
	// MaxDataBlockSize bounds the declared size of a single data block or
	// PCM RAM write payload.
	MaxDataBlockSize uint64
	// MaxTotalDataBlockBytes bounds the cumulative declared data-block
	// bytes across one file.
	MaxTotalDataBlockBytes uint64
	// MaxMetadataBytes bounds the declared GD3 tag length.
	MaxMetadataBytes uint64
	// MaxExtraHeaderEntries bounds each of the extra header's chip-clock
	// and chip-volume entry counts.
	MaxExtraHeaderEntries uint64
	// MaxCommandMemory bounds the estimated in-memory size of the decoded
	// command vector.
	MaxCommandMemory uint64
	// MaxDepth bounds parsing context nesting.
	MaxDepth uint64
}

// commandMemoryEstimate is the per-command bookkeeping cost used for the
// MaxCommandMemory ceiling. Payload bytes are charged separately through
// TrackDataBlock.
const commandMemoryEstimate = 48

// DefaultConfig returns the limits applied when callers do not choose a
// preset: generous enough for any real-world rip, small enough to stop
// runaway allocation from corrupt input.
func DefaultConfig() ParserConfig {
	return ParserConfig{
		MaxCommands:            4_000_000,
		MaxDataBlockSize:       64 << 20,
		MaxTotalDataBlockBytes: 256 << 20,
		MaxMetadataBytes:       1 << 20,
		MaxExtraHeaderEntries:  64,
		MaxCommandMemory:       512 << 20,
		MaxDepth:               16,
	}
}

// SecurityFocusedConfig returns tight limits for parsing untrusted input,
// for example uploads handled by the daemon.
func SecurityFocusedConfig() ParserConfig {
	return ParserConfig{
		MaxCommands:            500_000,
		MaxDataBlockSize:       4 << 20,
		MaxTotalDataBlockBytes: 16 << 20,
		MaxMetadataBytes:       64 << 10,
		MaxExtraHeaderEntries:  32,
		MaxCommandMemory:       64 << 20,
		MaxDepth:               8,
	}
}

// PermissiveConfig returns limits high enough to admit any structurally
// valid file a machine can hold in memory.
func PermissiveConfig() ParserConfig {
	return ParserConfig{
		MaxCommands:            1 << 32,
		MaxDataBlockSize:       1 << 32,
		MaxTotalDataBlockBytes: 1 << 34,
		MaxMetadataBytes:       1 << 28,
		MaxExtraHeaderEntries:  255,
		MaxCommandMemory:       1 << 38,
		MaxDepth:               64,
	}
}

// ResourceTracker accumulates per-session counters and checks them against
// a ParserConfig before each allocation-bearing step. One tracker serves
// exactly one decode call chain; it must not be shared across concurrent
// parses. A nil *ResourceTracker disables all guarding.
type ResourceTracker struct {
	cfg            ParserConfig
	commands       uint64
	dataBlockBytes uint64
	depth          uint64
}

// NewTracker returns a tracker enforcing cfg.
func NewTracker(cfg ParserConfig) *ResourceTracker {
	return &ResourceTracker{cfg: cfg}
}

// Config returns the limits the tracker enforces.
func (t *ResourceTracker) Config() ParserConfig {
	if t == nil {
		return PermissiveConfig()
	}
	return t.cfg
}

// Commands returns the number of commands tracked so far.
func (t *ResourceTracker) Commands() uint64 {
	if t == nil {
		return 0
	}
	return t.commands
}

// DataBlockBytes returns the cumulative declared data-block bytes tracked
// so far.
func (t *ResourceTracker) DataBlockBytes() uint64 {
	if t == nil {
		return 0
	}
	return t.dataBlockBytes
}

// TrackCommand records one command about to be decoded. It fails without
// incrementing when either the command-count or command-memory ceiling
// would be crossed.
func (t *ResourceTracker) TrackCommand() error {
	if t == nil {
		return nil
	}
	next := t.commands + 1
	if next > t.cfg.MaxCommands {
		return &LimitError{Limit: "max commands", Max: t.cfg.MaxCommands, Observed: next}
	}
	if mem := next * commandMemoryEstimate; mem > t.cfg.MaxCommandMemory {
		return &LimitError{Limit: "max command memory", Max: t.cfg.MaxCommandMemory, Observed: mem}
	}
	t.commands = next
	return nil
}

// TrackDataBlock records the declared size of a data block or PCM RAM
// write before its payload is allocated. The declared size from the
// stream is used, never the bytes actually read, so hostile declarations
// fail before any large allocation.
func (t *ResourceTracker) TrackDataBlock(declared uint64) error {
	if t == nil {
		return nil
	}
	if declared > t.cfg.MaxDataBlockSize {
		return &LimitError{Limit: "max data block size", Max: t.cfg.MaxDataBlockSize, Observed: declared}
	}
	next := t.dataBlockBytes + declared
	if next > t.cfg.MaxTotalDataBlockBytes {
		return &LimitError{Limit: "max total data block bytes", Max: t.cfg.MaxTotalDataBlockBytes, Observed: next}
	}
	t.dataBlockBytes = next
	return nil
}

// TrackMetadata checks a declared GD3 tag length against the metadata
// ceiling.
func (t *ResourceTracker) TrackMetadata(declared uint64) error {
	if t == nil {
		return nil
	}
	if declared > t.cfg.MaxMetadataBytes {
		return &LimitError{Limit: "max metadata bytes", Max: t.cfg.MaxMetadataBytes, Observed: declared}
	}
	return nil
}

// TrackExtraHeaderEntries checks a declared extra-header entry count.
func (t *ResourceTracker) TrackExtraHeaderEntries(count uint64) error {
	if t == nil {
		return nil
	}
	if count > t.cfg.MaxExtraHeaderEntries {
		return &LimitError{Limit: "max extra header entries", Max: t.cfg.MaxExtraHeaderEntries, Observed: count}
	}
	return nil
}

// EnterParsingContext pushes one level of nesting, failing when the depth
// ceiling would be crossed.
func (t *ResourceTracker) EnterParsingContext() error {
	if t == nil {
		return nil
	}
	next := t.depth + 1
	if next > t.cfg.MaxDepth {
		return &LimitError{Limit: "max parsing depth", Max: t.cfg.MaxDepth, Observed: next}
	}
	t.depth = next
	return nil
}

// ExitParsingContext pops one level of nesting.
func (t *ResourceTracker) ExitParsingContext() {
	if t == nil || t.depth == 0 {
		return
	}
	t.depth--
}
