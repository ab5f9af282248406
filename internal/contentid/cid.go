package contentid

import (
	"github.com/ipfs/go-cid"
	"github.com/multiformats/go-multihash"
)

// CIDv1 returns a CIDv1 string using the "raw" multicodec and a sha2-256
// multihash. Used to cross-check the content id the storage gateway assigns
// to an uploaded payload.
func CIDv1(data []byte) (string, error) {
	sum, err := multihash.Sum(data, multihash.SHA2_256, -1)
	if err != nil {
		return "", err
	}
	return cid.NewCidV1(cid.Raw, sum).String(), nil
}
