package harvest

import "hash/fnv"

// signaturePrefixBytes bounds how much page content feeds the signature.
// Two genuinely distinct pages sharing an identical first 10 KiB (a heavy
// templated shell with the listings further down) would falsely stop the
// walk early; widening the window changes termination behavior on such
// sites, so the bound stays fixed and documented instead.
const signaturePrefixBytes = 10 * 1024

// Signature is a content fingerprint used to detect pagination loops where
// a site serves the same page for every out-of-range page number.
type Signature uint64

// SignatureOf hashes a bounded prefix of the page content.
func SignatureOf(content string) Signature {
	if len(content) > signaturePrefixBytes {
		content = content[:signaturePrefixBytes]
	}
	h := fnv.New64a()
	_, _ = h.Write([]byte(content))
	return Signature(h.Sum64())
}
