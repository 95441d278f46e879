package wire

import "errors"

// Parse/validation failures shared by the Platform and Application codecs.
// A staging failure recorded by a builder's With* methods is one of these,
// unwrapped; FromPack records whatever error decoding the pack returned.
// validated_build returns (nil, false) on any of them.
var (
	ErrParcelTruncated      = errors.New("wire: declared length exceeds remaining buffer")
	ErrParcelEmptyRoute     = errors.New("wire: application parcel route is empty")
	ErrParcelWrongProtocol  = errors.New("wire: buffer protocol tag does not match parcel type")
	ErrParcelSignatureFail  = errors.New("wire: signature verification failed")
	ErrParcelDecryptFailed  = errors.New("wire: decryption failed")
	ErrParcelNoSourceID     = errors.New("wire: parcel has no source identifier")
	ErrParcelBadDestination = errors.New("wire: destination identifier is invalid")
)

// stagingFailures accumulates every builder-time error so validated_build
// observes all of them, not just the most recent (§9: "the important
// property is that validated_build observes all accumulated staging
// failures, not just the most recent").
type stagingFailures struct {
	errs []error
}

func (s *stagingFailures) record(err error) {
	if err != nil {
		s.errs = append(s.errs, err)
	}
}

func (s *stagingFailures) ok() bool {
	return len(s.errs) == 0
}

func (s *stagingFailures) errors() []error {
	return s.errs
}
