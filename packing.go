package ophelib

import (
	"github.com/pkg/errors"
)

const bufferBits = 1

// PackedCiphertext bit-packs n_plaintexts signed values, each occupying
// plaintext_bits+buffer_bits bits, into a single Ciphertext. Grounded on
// original_source/include/ophelib/packing.h.
type PackedCiphertext struct {
	Data          Ciphertext
	NPlaintexts   int
	PlaintextBits int
}

func shiftOf(plaintextBits int) int { return plaintextBits + bufferBits }

// PackCount returns the number of plaintext_bits-wide slots that fit in a
// single ciphertext of the given scheme: plaintext_size_bits / (plaintext_bits + 1).
func PackCount(scheme Scheme, plaintextBits int) (int, error) {
	if plaintextBits < 1 {
		return 0, errors.WithStack(&ParamError{Msg: "PackCount requires plaintextBits >= 1"})
	}
	shift := shiftOf(plaintextBits)
	return scheme.PlaintextSizeBits() / shift, nil
}

func checkSlotBits(v Int, plaintextBits int) error {
	mag := v
	if mag.Sign() < 0 {
		mag = mag.Neg()
	}
	if mag.BitLen() > plaintextBits {
		return errors.WithStack(&ParamError{Msg: "value does not fit in plaintext_bits bits"})
	}
	return nil
}

// Encode bit-packs values (MSB-first: values[0] occupies the highest slot)
// into a single plaintext integer and encrypts it. Fails if any value
// overflows plaintext_bits bits of magnitude, or if more values are given
// than PackCount allows.
func Encode(scheme Scheme, values []Int, plaintextBits int, src RandSource) (PackedCiphertext, error) {
	count, err := PackCount(scheme, plaintextBits)
	if err != nil {
		return PackedCiphertext{}, err
	}
	if len(values) > count {
		return PackedCiphertext{}, errors.WithStack(&ParamError{Msg: "too many values for a single packed ciphertext"})
	}
	shift := shiftOf(plaintextBits)

	s := zeroInt
	for _, v := range values {
		if err := checkSlotBits(v, plaintextBits); err != nil {
			return PackedCiphertext{}, err
		}
		s = s.Lsh(uint(shift)).Add(v)
	}

	ct, err := scheme.Encrypt(s, src)
	if err != nil {
		return PackedCiphertext{}, err
	}
	return PackedCiphertext{Data: ct, NPlaintexts: len(values), PlaintextBits: plaintextBits}, nil
}

// PackCiphertexts homomorphically packs n already-encrypted slots into a
// single PackedCiphertext, without ever decrypting them: each slot is
// shifted into place with a homomorphic scalar multiply by 2^shift and
// accumulated with homomorphic adds. Fails on zero slots.
func PackCiphertexts(scheme Scheme, cs []Ciphertext, plaintextBits int) (PackedCiphertext, error) {
	if len(cs) == 0 {
		return PackedCiphertext{}, errors.WithStack(&ParamError{Msg: "PackCiphertexts requires at least one ciphertext"})
	}
	count, err := PackCount(scheme, plaintextBits)
	if err != nil {
		return PackedCiphertext{}, err
	}
	if len(cs) > count {
		return PackedCiphertext{}, errors.WithStack(&ParamError{Msg: "too many ciphertexts for a single packed ciphertext"})
	}
	shift := shiftOf(plaintextBits)
	shiftScalar := oneInt.Lsh(uint(shift))

	acc := cs[0]
	for _, c := range cs[1:] {
		shifted, err := acc.ScalarMul(shiftScalar)
		if err != nil {
			return PackedCiphertext{}, err
		}
		acc, err = shifted.Add(c)
		if err != nil {
			return PackedCiphertext{}, err
		}
	}
	return PackedCiphertext{Data: acc, NPlaintexts: len(cs), PlaintextBits: plaintextBits}, nil
}

// EncodeChunked splits values into packs of at most PackCount(plaintextBits)
// elements each, preserving order, and Encodes each pack. Length-0 input
// yields a length-0 result.
func EncodeChunked(scheme Scheme, values []Int, plaintextBits int, src RandSource) ([]PackedCiphertext, error) {
	count, err := PackCount(scheme, plaintextBits)
	if err != nil {
		return nil, err
	}
	if count < 1 {
		return nil, errors.WithStack(&ParamError{Msg: "plaintext_bits leaves no room for any slot in a ciphertext"})
	}
	var packs []PackedCiphertext
	for start := 0; start < len(values); start += count {
		end := start + count
		if end > len(values) {
			end = len(values)
		}
		pc, err := Encode(scheme, values[start:end], plaintextBits, src)
		if err != nil {
			return nil, err
		}
		packs = append(packs, pc)
	}
	return packs, nil
}

// PackCiphertextsChunked is the homomorphic analogue of EncodeChunked: it
// splits cs into groups of at most PackCount(plaintextBits) ciphertexts and
// packs each group with PackCiphertexts.
func PackCiphertextsChunked(scheme Scheme, cs []Ciphertext, plaintextBits int) ([]PackedCiphertext, error) {
	count, err := PackCount(scheme, plaintextBits)
	if err != nil {
		return nil, err
	}
	if count < 1 {
		return nil, errors.WithStack(&ParamError{Msg: "plaintext_bits leaves no room for any slot in a ciphertext"})
	}
	var packs []PackedCiphertext
	for start := 0; start < len(cs); start += count {
		end := start + count
		if end > len(cs) {
			end = len(cs)
		}
		pc, err := PackCiphertexts(scheme, cs[start:end], plaintextBits)
		if err != nil {
			return nil, err
		}
		packs = append(packs, pc)
	}
	return packs, nil
}

// Decode decrypts a PackedCiphertext and splits the recovered integer back
// into its n_plaintexts signed slots, least-significant slot first in
// processing order but returned in original left-to-right order. A
// zero-slot PackedCiphertext decodes to an empty slice.
func Decode(scheme Scheme, pc PackedCiphertext) ([]Int, error) {
	if pc.NPlaintexts == 0 {
		return []Int{}, nil
	}
	s, err := scheme.Decrypt(pc.Data)
	if err != nil {
		return nil, err
	}
	return decodeSlots(s, pc.NPlaintexts, pc.PlaintextBits)
}

func decodeSlots(s Int, nPlaintexts, plaintextBits int) ([]Int, error) {
	shift := shiftOf(plaintextBits)
	mask := oneInt.Lsh(uint(shift)).Sub(oneInt)
	signMask := oneInt.Lsh(uint(shift - 1))
	signThreshold := oneInt.Lsh(uint(shift))

	slots := make([]Int, nPlaintexts)
	cur := s
	for i := nPlaintexts - 1; i >= 0; i-- {
		slot := cur.And(mask)
		if slot.And(signMask).Sign() != 0 {
			neg := slot.Sub(signThreshold)
			slots[i] = neg
			cur = cur.Sub(neg)
		} else {
			slots[i] = slot
		}
		cur = cur.Rsh(uint(shift))
	}
	return slots, nil
}

// DecryptFast decrypts many ciphertexts efficiently by grouping them into
// PackCount(plaintextBits)-sized batches, homomorphically packing each
// batch (without re-encrypting), decrypting the one packed ciphertext per
// batch, and decoding the slots — trading many decryptions for one per
// batch.
func DecryptFast(scheme Scheme, cs []Ciphertext, plaintextBits int) ([]Int, error) {
	if len(cs) == 0 {
		return []Int{}, nil
	}
	packs, err := PackCiphertextsChunked(scheme, cs, plaintextBits)
	if err != nil {
		return nil, err
	}
	results := make([]Int, 0, len(cs))
	for _, pc := range packs {
		slots, err := Decode(scheme, pc)
		if err != nil {
			return nil, err
		}
		results = append(results, slots...)
	}
	return results, nil
}
