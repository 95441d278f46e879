package wire

// PlatformBuilder accumulates fields for a PlatformParcel one at a time.
// Build returns whatever has been staged, unvalidated, for trusted
// constructors; ValidatedBuild additionally checks the parcel's invariants
// and every staging failure recorded along the way.
type PlatformBuilder struct {
	failures stagingFailures
	header   Header
	typeSet  bool
	parcel   PlatformType
	payload  []byte
}

// NewPlatformBuilder returns an empty builder.
func NewPlatformBuilder() *PlatformBuilder {
	return &PlatformBuilder{header: Header{Protocol: ProtocolPlatform}}
}

func (b *PlatformBuilder) WithSource(id NodeID) *PlatformBuilder {
	if !id.Valid() {
		b.failures.record(ErrParcelNoSourceID)
	}
	b.header.Source = id
	return b
}

func (b *PlatformBuilder) WithDestination(d Destination) *PlatformBuilder {
	if d.Type == DestinationNode && len(d.ID) > 0 && !d.ID.Valid() {
		b.failures.record(ErrParcelBadDestination)
	}
	b.header.Destination = d
	return b
}

func (b *PlatformBuilder) WithTimestamp(ts int64) *PlatformBuilder {
	b.header.Timestamp = ts
	return b
}

func (b *PlatformBuilder) WithType(t PlatformType) *PlatformBuilder {
	if !t.valid() {
		b.failures.record(ErrParcelTruncated)
	}
	b.typeSet = true
	b.parcel = t
	return b
}

func (b *PlatformBuilder) WithPayload(payload []byte) *PlatformBuilder {
	b.payload = payload
	return b
}

// FromPack reverse-decodes an encoded pack into the builder's staged
// fields, recording a staging failure on any parse or verification error
// instead of returning it immediately — consistent with how WithX methods
// accumulate failures for ValidatedBuild to surface together.
func (b *PlatformBuilder) FromPack(encoded string, verifier Verifier) *PlatformBuilder {
	parcel, err := DecodePlatformParcel(encoded, verifier)
	if err != nil {
		b.failures.record(err)
		return b
	}
	b.header = parcel.Header
	b.typeSet = true
	b.parcel = parcel.Type
	b.payload = parcel.Payload
	return b
}

// Build returns the staged parcel without checking invariants, for trusted
// constructors that already know their inputs are well-formed.
func (b *PlatformBuilder) Build() *PlatformParcel {
	return &PlatformParcel{Header: b.header, Type: b.parcel, Payload: b.payload}
}

// ValidatedBuild returns (nil, false) if any staging failure was recorded
// or an invariant is violated; otherwise it returns the built parcel.
func (b *PlatformBuilder) ValidatedBuild() (*PlatformParcel, bool) {
	if !b.failures.ok() {
		return nil, false
	}
	if !b.typeSet {
		return nil, false
	}
	// A handshake's first message may lack a known destination, but every
	// parcel must carry a source.
	if len(b.header.Source) == 0 {
		return nil, false
	}
	return b.Build(), true
}

// Failures returns every staging failure recorded so far, in order.
func (b *PlatformBuilder) Failures() []error {
	return b.failures.errors()
}
