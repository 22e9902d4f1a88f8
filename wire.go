package ophelib

import (
	"fmt"

	"gopkg.in/mgo.v2/bson"
)

// Wire shapes below mirror the db* hex-string convention in
// didiercrunch-paillier's encoding.go (dbCypher, dbPrivateKey, dbThresholdKey): every BigInt is
// marshaled as a hex string rather than BSON's native binary, so documents
// stay human-inspectable in a database shell. GetBSON/SetBSON are bson.v2's
// hook names; every exported cryptographic value implements them.

func hexOf(v Int) string { return v.Text(16) }

func intFromHex(s string) (Int, error) {
	v, ok := IntFromText(s, 16)
	if !ok {
		return Int{}, fmt.Errorf("wire: %q is not a hexadecimal integer", s)
	}
	return v, nil
}

// dbInteger is the wire shape for a single BigInt.
type dbInteger struct {
	Data string
}

func (a Int) GetBSON() (interface{}, error) {
	return &dbInteger{Data: hexOf(a)}, nil
}

func (a *Int) SetBSON(raw bson.Raw) error {
	d := dbInteger{}
	if err := raw.Unmarshal(&d); err != nil {
		return err
	}
	v, err := intFromHex(d.Data)
	if err != nil {
		return err
	}
	*a = v
	return nil
}

// dbCiphertext is the wire shape for a Ciphertext: just its
// raw data. Deserialized ciphertexts carry no modulus reference; call
// AttachModulus (or AttachModulusFast) to make them usable in homomorphic
// operations.
type dbCiphertext struct {
	Data string
}

func (c Ciphertext) GetBSON() (interface{}, error) {
	return &dbCiphertext{Data: hexOf(c.data)}, nil
}

func (c *Ciphertext) SetBSON(raw bson.Raw) error {
	d := dbCiphertext{}
	if err := raw.Unmarshal(&d); err != nil {
		return err
	}
	v, err := intFromHex(d.Data)
	if err != nil {
		return err
	}
	*c = Ciphertext{data: v}
	return nil
}

// AttachModulus attaches n2 (with no FastMod) to c, producing a Ciphertext
// that can participate in homomorphic operations. Use AttachModulusFast
// when the scheme has a FastMod available, and AttachModulusVec or
// AttachModulusMat to give every ciphertext of a container one shared
// reference.
func AttachModulus(c Ciphertext, n2 Int) Ciphertext {
	return Ciphertext{data: c.data, mod: &modulus{n2: n2}}
}

// AttachModulusFast attaches both n2 and a FastMod to c.
func AttachModulusFast(c Ciphertext, n2 Int, fm *FastMod) Ciphertext {
	return Ciphertext{data: c.data, mod: &modulus{n2: n2, fastMod: fm}}
}

// dbPackedCiphertext is the wire shape for a PackedCiphertext.
type dbPackedCiphertext struct {
	NPlaintexts   int
	PlaintextBits int
	Data          dbCiphertext
}

func (pc PackedCiphertext) GetBSON() (interface{}, error) {
	return &dbPackedCiphertext{
		NPlaintexts:   pc.NPlaintexts,
		PlaintextBits: pc.PlaintextBits,
		Data:          dbCiphertext{Data: hexOf(pc.Data.data)},
	}, nil
}

func (pc *PackedCiphertext) SetBSON(raw bson.Raw) error {
	d := dbPackedCiphertext{}
	if err := raw.Unmarshal(&d); err != nil {
		return err
	}
	v, err := intFromHex(d.Data.Data)
	if err != nil {
		return err
	}
	pc.NPlaintexts = d.NPlaintexts
	pc.PlaintextBits = d.PlaintextBits
	pc.Data = Ciphertext{data: v}
	return nil
}

// AttachModulusPacked attaches n2 (and an optional FastMod) to every
// ciphertext field reachable from pc.
func AttachModulusPacked(pc PackedCiphertext, n2 Int, fm *FastMod) PackedCiphertext {
	pc.Data = AttachModulusFast(pc.Data, n2, fm)
	return pc
}

// dbPublicKey is the wire shape for a PublicKey.
type dbPublicKey struct {
	KeySizeBits int
	N           string
	G           string
}

func (pk PublicKey) GetBSON() (interface{}, error) {
	return &dbPublicKey{KeySizeBits: pk.KeySizeBits, N: hexOf(pk.N), G: hexOf(pk.G)}, nil
}

func (pk *PublicKey) SetBSON(raw bson.Raw) error {
	d := dbPublicKey{}
	if err := raw.Unmarshal(&d); err != nil {
		return err
	}
	n, err := intFromHex(d.N)
	if err != nil {
		return err
	}
	g, err := intFromHex(d.G)
	if err != nil {
		return err
	}
	pk.KeySizeBits = d.KeySizeBits
	pk.N = n
	pk.G = g
	return nil
}

// dbPrivateKey is the wire shape for a PrivateKey. A is
// omitted (empty string) for the Reference variant.
type dbPrivateKey struct {
	KeySizeBits int
	ABits       int
	P           string
	Q           string
	A           string `bson:",omitempty"`
}

func (priv PrivateKey) GetBSON() (interface{}, error) {
	d := &dbPrivateKey{
		KeySizeBits: priv.KeySizeBits,
		ABits:       priv.ABits,
		P:           hexOf(priv.P),
		Q:           hexOf(priv.Q),
	}
	if priv.IsFastVariant() {
		d.A = hexOf(priv.A)
	}
	return d, nil
}

func (priv *PrivateKey) SetBSON(raw bson.Raw) error {
	d := dbPrivateKey{}
	if err := raw.Unmarshal(&d); err != nil {
		return err
	}
	p, err := intFromHex(d.P)
	if err != nil {
		return err
	}
	q, err := intFromHex(d.Q)
	if err != nil {
		return err
	}
	priv.KeySizeBits = d.KeySizeBits
	priv.ABits = d.ABits
	priv.P = p
	priv.Q = q
	if d.A != "" {
		a, err := intFromHex(d.A)
		if err != nil {
			return err
		}
		priv.A = a
	}
	return nil
}

// dbKeyPair is the wire shape for a KeyPair.
type dbKeyPair struct {
	Pub  dbPublicKey
	Priv dbPrivateKey
}

func (kp KeyPair) GetBSON() (interface{}, error) {
	pubRaw, err := kp.Pub.GetBSON()
	if err != nil {
		return nil, err
	}
	privRaw, err := kp.Priv.GetBSON()
	if err != nil {
		return nil, err
	}
	return &dbKeyPair{Pub: *pubRaw.(*dbPublicKey), Priv: *privRaw.(*dbPrivateKey)}, nil
}

func (kp *KeyPair) SetBSON(raw bson.Raw) error {
	d := dbKeyPair{}
	if err := raw.Unmarshal(&d); err != nil {
		return err
	}
	var pub PublicKey
	pub.KeySizeBits = d.Pub.KeySizeBits
	var err error
	if pub.N, err = intFromHex(d.Pub.N); err != nil {
		return err
	}
	if pub.G, err = intFromHex(d.Pub.G); err != nil {
		return err
	}
	var priv PrivateKey
	priv.KeySizeBits = d.Priv.KeySizeBits
	priv.ABits = d.Priv.ABits
	if priv.P, err = intFromHex(d.Priv.P); err != nil {
		return err
	}
	if priv.Q, err = intFromHex(d.Priv.Q); err != nil {
		return err
	}
	if d.Priv.A != "" {
		if priv.A, err = intFromHex(d.Priv.A); err != nil {
			return err
		}
	}
	kp.Pub = pub
	kp.Priv = priv
	return nil
}

// VecInteger, VecCiphertext and VecPackedCiphertext wrap their element
// slices in a { length, data } document, the same shape
// dbVecFloat below uses: mgo's bson only marshals documents (structs/maps)
// at the top level, never a bare slice, so every Vec* needs a wrapper
// document even though the logical shape is "just a slice".
type VecInteger []Int

type dbVecIntegerDoc struct {
	Length int
	Data   []Int
}

func (v VecInteger) GetBSON() (interface{}, error) {
	return &dbVecIntegerDoc{Length: len(v), Data: []Int(v)}, nil
}

func (v *VecInteger) SetBSON(raw bson.Raw) error {
	d := dbVecIntegerDoc{}
	if err := raw.Unmarshal(&d); err != nil {
		return err
	}
	*v = VecInteger(d.Data)
	return nil
}

type VecCiphertext []Ciphertext

type dbVecCiphertextDoc struct {
	Length int
	Data   []Ciphertext
}

func (v VecCiphertext) GetBSON() (interface{}, error) {
	return &dbVecCiphertextDoc{Length: len(v), Data: []Ciphertext(v)}, nil
}

func (v *VecCiphertext) SetBSON(raw bson.Raw) error {
	d := dbVecCiphertextDoc{}
	if err := raw.Unmarshal(&d); err != nil {
		return err
	}
	*v = VecCiphertext(d.Data)
	return nil
}

type VecPackedCiphertext []PackedCiphertext

type dbVecPackedCiphertextDoc struct {
	Length int
	Data   []PackedCiphertext
}

func (v VecPackedCiphertext) GetBSON() (interface{}, error) {
	return &dbVecPackedCiphertextDoc{Length: len(v), Data: []PackedCiphertext(v)}, nil
}

func (v *VecPackedCiphertext) SetBSON(raw bson.Raw) error {
	d := dbVecPackedCiphertextDoc{}
	if err := raw.Unmarshal(&d); err != nil {
		return err
	}
	*v = VecPackedCiphertext(d.Data)
	return nil
}

// dbVecFloat is the wire shape for VecFloat.
type dbVecFloat struct {
	Length int
	Data   []float64
}

// VecFloat is a wire-serializable vector of float64.
type VecFloat []float64

func (v VecFloat) GetBSON() (interface{}, error) {
	return &dbVecFloat{Length: len(v), Data: []float64(v)}, nil
}

func (v *VecFloat) SetBSON(raw bson.Raw) error {
	d := dbVecFloat{}
	if err := raw.Unmarshal(&d); err != nil {
		return err
	}
	*v = VecFloat(d.Data)
	return nil
}

// MatFloat, MatInteger and MatCiphertext share a row-major wire shape:
// { n_rows, n_cols: uint32; data: VecT[] } with
// data.length == n_rows and each row.length == n_cols.
type dbMatFloat struct {
	NRows int
	NCols int
	Data  []dbVecFloat
}

// MatFloat is a row-major matrix of float64, mirrored to the bson shape
// above. It is a separate type from vecmat.Mat[float64]; this package
// provides no conversion between the two.
type MatFloat struct {
	NRows, NCols int
	Data         [][]float64
}

func (m MatFloat) GetBSON() (interface{}, error) {
	rows := make([]dbVecFloat, len(m.Data))
	for i, row := range m.Data {
		rows[i] = dbVecFloat{Length: len(row), Data: row}
	}
	return &dbMatFloat{NRows: m.NRows, NCols: m.NCols, Data: rows}, nil
}

func (m *MatFloat) SetBSON(raw bson.Raw) error {
	d := dbMatFloat{}
	if err := raw.Unmarshal(&d); err != nil {
		return err
	}
	rows := make([][]float64, len(d.Data))
	for i, row := range d.Data {
		rows[i] = row.Data
	}
	m.NRows = d.NRows
	m.NCols = d.NCols
	m.Data = rows
	return nil
}

// dbVecInteger is the wire shape for one row of a MatInteger: a vector of
// hex-encoded Int, mirroring dbInteger's hex-string convention per entry.
type dbVecInteger struct {
	Length int
	Data   []string
}

func hexRow(row []Int) dbVecInteger {
	hexes := make([]string, len(row))
	for i, v := range row {
		hexes[i] = hexOf(v)
	}
	return dbVecInteger{Length: len(row), Data: hexes}
}

func intRow(d dbVecInteger) ([]Int, error) {
	row := make([]Int, len(d.Data))
	for i, s := range d.Data {
		v, err := intFromHex(s)
		if err != nil {
			return nil, err
		}
		row[i] = v
	}
	return row, nil
}

type dbMatInteger struct {
	NRows int
	NCols int
	Data  []dbVecInteger
}

// MatInteger is a row-major matrix of Int.
type MatInteger struct {
	NRows, NCols int
	Data         [][]Int
}

func (m MatInteger) GetBSON() (interface{}, error) {
	rows := make([]dbVecInteger, len(m.Data))
	for i, row := range m.Data {
		rows[i] = hexRow(row)
	}
	return &dbMatInteger{NRows: m.NRows, NCols: m.NCols, Data: rows}, nil
}

func (m *MatInteger) SetBSON(raw bson.Raw) error {
	d := dbMatInteger{}
	if err := raw.Unmarshal(&d); err != nil {
		return err
	}
	rows := make([][]Int, len(d.Data))
	for i, row := range d.Data {
		r, err := intRow(row)
		if err != nil {
			return err
		}
		rows[i] = r
	}
	m.NRows = d.NRows
	m.NCols = d.NCols
	m.Data = rows
	return nil
}

// dbVecCiphertext is the wire shape for one row of a MatCiphertext.
type dbVecCiphertext struct {
	Length int
	Data   []dbCiphertext
}

type dbMatCiphertext struct {
	NRows int
	NCols int
	Data  []dbVecCiphertext
}

// MatCiphertext is a row-major matrix of Ciphertext.
// Ciphertexts deserialized this way carry no modulus reference; use
// AttachModulusMat to attach a shared one to every entry.
type MatCiphertext struct {
	NRows, NCols int
	Data         [][]Ciphertext
}

func (m MatCiphertext) GetBSON() (interface{}, error) {
	rows := make([]dbVecCiphertext, len(m.Data))
	for i, row := range m.Data {
		entries := make([]dbCiphertext, len(row))
		for j, c := range row {
			entries[j] = dbCiphertext{Data: hexOf(c.data)}
		}
		rows[i] = dbVecCiphertext{Length: len(row), Data: entries}
	}
	return &dbMatCiphertext{NRows: m.NRows, NCols: m.NCols, Data: rows}, nil
}

func (m *MatCiphertext) SetBSON(raw bson.Raw) error {
	d := dbMatCiphertext{}
	if err := raw.Unmarshal(&d); err != nil {
		return err
	}
	rows := make([][]Ciphertext, len(d.Data))
	for i, row := range d.Data {
		entries := make([]Ciphertext, len(row.Data))
		for j, e := range row.Data {
			v, err := intFromHex(e.Data)
			if err != nil {
				return err
			}
			entries[j] = Ciphertext{data: v}
		}
		rows[i] = entries
	}
	m.NRows = d.NRows
	m.NCols = d.NCols
	m.Data = rows
	return nil
}

// AttachModulusMat attaches n2 (and an optional FastMod) to every
// ciphertext in m, returning a new MatCiphertext.
func AttachModulusMat(m MatCiphertext, n2 Int, fm *FastMod) MatCiphertext {
	shared := &modulus{n2: n2, fastMod: fm}
	out := make([][]Ciphertext, len(m.Data))
	for i, row := range m.Data {
		newRow := make([]Ciphertext, len(row))
		for j, c := range row {
			newRow[j] = Ciphertext{data: c.data, mod: shared}
		}
		out[i] = newRow
	}
	return MatCiphertext{NRows: m.NRows, NCols: m.NCols, Data: out}
}

// AttachModulusVec attaches n2 (and an optional FastMod) to every
// ciphertext in cs, returning a new slice: all ciphertexts inside a
// container share the same references when that overload is used.
func AttachModulusVec(cs []Ciphertext, n2 Int, fm *FastMod) []Ciphertext {
	shared := &modulus{n2: n2, fastMod: fm}
	out := make([]Ciphertext, len(cs))
	for i, c := range cs {
		out[i] = Ciphertext{data: c.data, mod: shared}
	}
	return out
}
