package wire

// ApplicationBuilder accumulates fields for an ApplicationParcel one at a
// time, mirroring PlatformBuilder's build/validated_build split.
type ApplicationBuilder struct {
	failures   stagingFailures
	header     Header
	route      string
	routeSet   bool
	payload    []byte
	extensions []Extension
}

func NewApplicationBuilder() *ApplicationBuilder {
	return &ApplicationBuilder{header: Header{Protocol: ProtocolApplication}}
}

func (b *ApplicationBuilder) WithSource(id NodeID) *ApplicationBuilder {
	if !id.Valid() {
		b.failures.record(ErrParcelNoSourceID)
	}
	b.header.Source = id
	return b
}

func (b *ApplicationBuilder) WithDestination(d Destination) *ApplicationBuilder {
	if d.Type == DestinationNode && len(d.ID) > 0 && !d.ID.Valid() {
		b.failures.record(ErrParcelBadDestination)
	}
	b.header.Destination = d
	return b
}

func (b *ApplicationBuilder) WithTimestamp(ts int64) *ApplicationBuilder {
	b.header.Timestamp = ts
	return b
}

func (b *ApplicationBuilder) WithRoute(route string) *ApplicationBuilder {
	if route == "" {
		b.failures.record(ErrParcelEmptyRoute)
	}
	b.routeSet = true
	b.route = route
	return b
}

func (b *ApplicationBuilder) WithPayload(payload []byte) *ApplicationBuilder {
	b.payload = payload
	return b
}

func (b *ApplicationBuilder) WithExtension(e Extension) *ApplicationBuilder {
	b.extensions = append(b.extensions, e)
	return b
}

// FromPack reverse-decodes an encoded pack into the builder's staged
// fields, recording any parse/decrypt/verify error as a staging failure.
func (b *ApplicationBuilder) FromPack(encoded string, decryptor Decryptor, verifier Verifier) *ApplicationBuilder {
	parcel, err := DecodeApplicationParcel(encoded, decryptor, verifier)
	if err != nil {
		b.failures.record(err)
		return b
	}
	b.header = parcel.Header
	b.routeSet = true
	b.route = parcel.Route
	b.payload = parcel.Payload
	b.extensions = parcel.Extensions
	return b
}

// Build returns the staged parcel without checking invariants.
func (b *ApplicationBuilder) Build() *ApplicationParcel {
	return &ApplicationParcel{
		Header:     b.header,
		Route:      b.route,
		Payload:    b.payload,
		Extensions: b.extensions,
	}
}

// ValidatedBuild returns (nil, false) on any staging failure or invariant
// violation: a missing source, a missing or empty route, or a malformed
// Awaitable/Status extension. The route is not checked against the path
// grammar here.
func (b *ApplicationBuilder) ValidatedBuild() (*ApplicationParcel, bool) {
	if !b.failures.ok() {
		return nil, false
	}
	if len(b.header.Source) == 0 {
		return nil, false
	}
	if !b.routeSet || b.route == "" {
		return nil, false
	}
	for _, e := range b.extensions {
		switch e.Key {
		case ExtensionAwaitable:
			if _, _, err := e.AsAwaitable(); err != nil {
				return nil, false
			}
		case ExtensionStatus:
			if _, err := e.AsStatus(); err != nil {
				return nil, false
			}
		}
	}
	return b.Build(), true
}

// Failures returns every staging failure recorded so far, in order.
func (b *ApplicationBuilder) Failures() []error {
	return b.failures.errors()
}
