package types

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"math/big"

	collcodec "cosmossdk.io/collections/codec"
	sdkerrors "cosmossdk.io/errors"
	"cosmossdk.io/math"
)

// Stored vector encoding (compressed form):
//
//	[LE16 count] then per entry [uvarint uidDelta][LE16 weight]
//
// UIDs are strictly ascending, so each entry stores only the delta from the
// previous UID (the first entry's delta is its UID). Absent UIDs cost
// nothing, which keeps the stored size proportional to the non-zero entry
// count rather than to the subnet's miner bound.

// EncodeVector serializes a vector into the compressed store form.
func EncodeVector(v WeightVector) ([]byte, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	buf := bytes.NewBuffer(make([]byte, 0, 2+len(v.Entries)*4))
	var scratch [binary.MaxVarintLen32 + 2]byte
	binary.LittleEndian.PutUint16(scratch[:2], uint16(len(v.Entries)))
	buf.Write(scratch[:2])
	prev := uint32(0)
	for _, e := range v.Entries {
		delta := e.Uid - prev
		n := binary.PutUvarint(scratch[:], uint64(delta))
		binary.LittleEndian.PutUint16(scratch[n:n+2], e.Weight)
		buf.Write(scratch[:n+2])
		prev = e.Uid
	}
	return buf.Bytes(), nil
}

// DecodeVector parses the compressed store form. Trailing bytes, truncated
// entries and non-ascending UIDs are all rejected.
func DecodeVector(b []byte) (WeightVector, error) {
	if len(b) < 2 {
		return WeightVector{}, sdkerrors.Wrap(ErrInvalidVector, "truncated vector header")
	}
	count := int(binary.LittleEndian.Uint16(b[:2]))
	rest := b[2:]
	entries := make([]WeightEntry, 0, count)
	prev := uint32(0)
	for i := 0; i < count; i++ {
		delta, n := binary.Uvarint(rest)
		if n <= 0 || len(rest) < n+2 {
			return WeightVector{}, sdkerrors.Wrapf(ErrInvalidVector, "truncated entry %d", i)
		}
		if i > 0 && delta == 0 {
			return WeightVector{}, sdkerrors.Wrapf(ErrInvalidVector, "zero uid delta at entry %d", i)
		}
		if uint64(prev)+delta > 0xFFFFFFFF {
			return WeightVector{}, sdkerrors.Wrapf(ErrInvalidVector, "uid overflow at entry %d", i)
		}
		uid := prev + uint32(delta)
		weight := binary.LittleEndian.Uint16(rest[n : n+2])
		entries = append(entries, WeightEntry{Uid: uid, Weight: weight})
		rest = rest[n+2:]
		prev = uid
	}
	if len(rest) != 0 {
		return WeightVector{}, sdkerrors.Wrapf(ErrInvalidVector, "%d trailing bytes", len(rest))
	}
	return WeightVector{Entries: entries}, nil
}

// Interchange record layouts (bit-exact, little-endian):
//
//	weight record: [LE32 subnet][LE64 epoch][LE32 validator][LE16 count]([LE32 uid][LE16 weight])*
//	global record: [LE32 subnet][LE64 epoch][LE16 count]([LE32 uid][LE16 weight])*
//	reward record: [LE32 subnet][LE64 epoch]
//	               [LE16 minerCount]([LE32 uid][LE128 amount])*
//	               [LE16 validatorCount]([LE32 uid][LE128 amount])*
//	               [LE128 burned]
//
// Amounts are unsigned 128-bit.

func appendEntries(buf *bytes.Buffer, entries []WeightEntry) {
	var scratch [6]byte
	for _, e := range entries {
		binary.LittleEndian.PutUint32(scratch[:4], e.Uid)
		binary.LittleEndian.PutUint16(scratch[4:6], e.Weight)
		buf.Write(scratch[:6])
	}
}

func readEntries(rest []byte, count int) ([]WeightEntry, []byte, error) {
	if len(rest) < count*6 {
		return nil, nil, sdkerrors.Wrap(ErrInvalidVector, "truncated entries")
	}
	entries := make([]WeightEntry, count)
	for i := 0; i < count; i++ {
		entries[i] = WeightEntry{
			Uid:    binary.LittleEndian.Uint32(rest[i*6 : i*6+4]),
			Weight: binary.LittleEndian.Uint16(rest[i*6+4 : i*6+6]),
		}
	}
	return entries, rest[count*6:], nil
}

// EncodeWeightRecord serializes a full submission record in the interchange
// layout.
func EncodeWeightRecord(subnetID uint32, epoch uint64, validatorID uint32, v WeightVector) ([]byte, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	buf := bytes.NewBuffer(make([]byte, 0, 18+len(v.Entries)*6))
	var scratch [8]byte
	binary.LittleEndian.PutUint32(scratch[:4], subnetID)
	buf.Write(scratch[:4])
	binary.LittleEndian.PutUint64(scratch[:8], epoch)
	buf.Write(scratch[:8])
	binary.LittleEndian.PutUint32(scratch[:4], validatorID)
	buf.Write(scratch[:4])
	binary.LittleEndian.PutUint16(scratch[:2], uint16(len(v.Entries)))
	buf.Write(scratch[:2])
	appendEntries(buf, v.Entries)
	return buf.Bytes(), nil
}

// DecodeWeightRecord parses the interchange submission layout.
func DecodeWeightRecord(b []byte) (subnetID uint32, epoch uint64, validatorID uint32, v WeightVector, err error) {
	if len(b) < 18 {
		return 0, 0, 0, WeightVector{}, sdkerrors.Wrap(ErrInvalidVector, "truncated weight record")
	}
	subnetID = binary.LittleEndian.Uint32(b[:4])
	epoch = binary.LittleEndian.Uint64(b[4:12])
	validatorID = binary.LittleEndian.Uint32(b[12:16])
	count := int(binary.LittleEndian.Uint16(b[16:18]))
	entries, rest, err := readEntries(b[18:], count)
	if err != nil {
		return 0, 0, 0, WeightVector{}, err
	}
	if len(rest) != 0 {
		return 0, 0, 0, WeightVector{}, sdkerrors.Wrapf(ErrInvalidVector, "%d trailing bytes", len(rest))
	}
	v = WeightVector{Entries: entries}
	if err := v.Validate(); err != nil {
		return 0, 0, 0, WeightVector{}, err
	}
	return subnetID, epoch, validatorID, v, nil
}

// EncodeGlobalRecord serializes a global-weight record: the submission
// layout without the validator field.
func EncodeGlobalRecord(subnetID uint32, epoch uint64, v WeightVector) ([]byte, error) {
	if err := v.Validate(); err != nil {
		return nil, err
	}
	buf := bytes.NewBuffer(make([]byte, 0, 14+len(v.Entries)*6))
	var scratch [8]byte
	binary.LittleEndian.PutUint32(scratch[:4], subnetID)
	buf.Write(scratch[:4])
	binary.LittleEndian.PutUint64(scratch[:8], epoch)
	buf.Write(scratch[:8])
	binary.LittleEndian.PutUint16(scratch[:2], uint16(len(v.Entries)))
	buf.Write(scratch[:2])
	appendEntries(buf, v.Entries)
	return buf.Bytes(), nil
}

// DecodeGlobalRecord parses a global-weight record.
func DecodeGlobalRecord(b []byte) (subnetID uint32, epoch uint64, v WeightVector, err error) {
	if len(b) < 14 {
		return 0, 0, WeightVector{}, sdkerrors.Wrap(ErrInvalidVector, "truncated global record")
	}
	subnetID = binary.LittleEndian.Uint32(b[:4])
	epoch = binary.LittleEndian.Uint64(b[4:12])
	count := int(binary.LittleEndian.Uint16(b[12:14]))
	entries, rest, err := readEntries(b[14:], count)
	if err != nil {
		return 0, 0, WeightVector{}, err
	}
	if len(rest) != 0 {
		return 0, 0, WeightVector{}, sdkerrors.Wrapf(ErrInvalidVector, "%d trailing bytes", len(rest))
	}
	v = WeightVector{Entries: entries}
	if err := v.Validate(); err != nil {
		return 0, 0, WeightVector{}, err
	}
	return subnetID, epoch, v, nil
}

func encodeU128(amount math.Int) ([16]byte, error) {
	var out [16]byte
	if amount.IsNil() || amount.IsNegative() {
		return out, sdkerrors.Wrap(ErrInvalidVector, "amount must be a non-negative integer")
	}
	bi := amount.BigInt()
	if bi.BitLen() > 128 {
		return out, sdkerrors.Wrapf(ErrInvalidVector, "amount %s exceeds 128 bits", amount.String())
	}
	var be [16]byte
	bi.FillBytes(be[:])
	for i := 0; i < 16; i++ {
		out[i] = be[15-i]
	}
	return out, nil
}

func decodeU128(b []byte) math.Int {
	var be [16]byte
	for i := 0; i < 16; i++ {
		be[i] = b[15-i]
	}
	bi := new(big.Int).SetBytes(be[:])
	return math.NewIntFromBigInt(bi)
}

func appendRewardAmounts(buf *bytes.Buffer, amounts []RewardAmount) error {
	var scratch [4]byte
	for _, a := range amounts {
		binary.LittleEndian.PutUint32(scratch[:], a.Uid)
		buf.Write(scratch[:])
		enc, err := encodeU128(a.Amount)
		if err != nil {
			return err
		}
		buf.Write(enc[:])
	}
	return nil
}

func readRewardAmounts(rest []byte, count int) ([]RewardAmount, []byte, error) {
	if len(rest) < count*20 {
		return nil, nil, sdkerrors.Wrap(ErrInvalidVector, "truncated reward entries")
	}
	amounts := make([]RewardAmount, count)
	for i := 0; i < count; i++ {
		amounts[i] = RewardAmount{
			Uid:    binary.LittleEndian.Uint32(rest[i*20 : i*20+4]),
			Amount: decodeU128(rest[i*20+4 : i*20+20]),
		}
	}
	return amounts, rest[count*20:], nil
}

// EncodeRewardRecord serializes a reward record in the interchange layout.
func EncodeRewardRecord(r RewardRecord) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, 32+20*(len(r.MinerRewards)+len(r.ValidatorRewards))))
	var scratch [8]byte
	binary.LittleEndian.PutUint32(scratch[:4], r.SubnetId)
	buf.Write(scratch[:4])
	binary.LittleEndian.PutUint64(scratch[:8], r.Epoch)
	buf.Write(scratch[:8])
	binary.LittleEndian.PutUint16(scratch[:2], uint16(len(r.MinerRewards)))
	buf.Write(scratch[:2])
	if err := appendRewardAmounts(buf, r.MinerRewards); err != nil {
		return nil, err
	}
	binary.LittleEndian.PutUint16(scratch[:2], uint16(len(r.ValidatorRewards)))
	buf.Write(scratch[:2])
	if err := appendRewardAmounts(buf, r.ValidatorRewards); err != nil {
		return nil, err
	}
	burned, err := encodeU128(r.Burned)
	if err != nil {
		return nil, err
	}
	buf.Write(burned[:])
	return buf.Bytes(), nil
}

// DecodeRewardRecord parses the interchange reward layout.
func DecodeRewardRecord(b []byte) (RewardRecord, error) {
	if len(b) < 14 {
		return RewardRecord{}, sdkerrors.Wrap(ErrInvalidVector, "truncated reward record")
	}
	r := RewardRecord{
		SubnetId: binary.LittleEndian.Uint32(b[:4]),
		Epoch:    binary.LittleEndian.Uint64(b[4:12]),
	}
	minerCount := int(binary.LittleEndian.Uint16(b[12:14]))
	miners, rest, err := readRewardAmounts(b[14:], minerCount)
	if err != nil {
		return RewardRecord{}, err
	}
	if len(rest) < 2 {
		return RewardRecord{}, sdkerrors.Wrap(ErrInvalidVector, "truncated reward record")
	}
	validatorCount := int(binary.LittleEndian.Uint16(rest[:2]))
	validators, rest, err := readRewardAmounts(rest[2:], validatorCount)
	if err != nil {
		return RewardRecord{}, err
	}
	if len(rest) != 16 {
		return RewardRecord{}, sdkerrors.Wrapf(ErrInvalidVector, "reward record tail is %d bytes, want 16", len(rest))
	}
	r.MinerRewards = miners
	r.ValidatorRewards = validators
	r.Burned = decodeU128(rest)
	return r, nil
}

// EncodeCollusionFlag serializes an advisory flag:
//
//	[LE32 subnet][LE64 epoch][LE16 count]([LE32 uid])*[LE8 len][correlation string]
func EncodeCollusionFlag(f CollusionFlag) ([]byte, error) {
	corr := f.Correlation.String()
	if len(corr) > 0xFF {
		return nil, sdkerrors.Wrap(ErrInvalidVector, "correlation string too long")
	}
	buf := bytes.NewBuffer(make([]byte, 0, 15+len(f.Validators)*4+len(corr)))
	var scratch [8]byte
	binary.LittleEndian.PutUint32(scratch[:4], f.SubnetId)
	buf.Write(scratch[:4])
	binary.LittleEndian.PutUint64(scratch[:8], f.Epoch)
	buf.Write(scratch[:8])
	binary.LittleEndian.PutUint16(scratch[:2], uint16(len(f.Validators)))
	buf.Write(scratch[:2])
	for _, uid := range f.Validators {
		binary.LittleEndian.PutUint32(scratch[:4], uid)
		buf.Write(scratch[:4])
	}
	buf.WriteByte(byte(len(corr)))
	buf.WriteString(corr)
	return buf.Bytes(), nil
}

// DecodeCollusionFlag parses a stored advisory flag.
func DecodeCollusionFlag(b []byte) (CollusionFlag, error) {
	if len(b) < 15 {
		return CollusionFlag{}, sdkerrors.Wrap(ErrInvalidVector, "truncated collusion flag")
	}
	f := CollusionFlag{
		SubnetId: binary.LittleEndian.Uint32(b[:4]),
		Epoch:    binary.LittleEndian.Uint64(b[4:12]),
	}
	count := int(binary.LittleEndian.Uint16(b[12:14]))
	rest := b[14:]
	if len(rest) < count*4+1 {
		return CollusionFlag{}, sdkerrors.Wrap(ErrInvalidVector, "truncated validator set")
	}
	f.Validators = make([]uint32, count)
	for i := 0; i < count; i++ {
		f.Validators[i] = binary.LittleEndian.Uint32(rest[i*4 : i*4+4])
	}
	rest = rest[count*4:]
	strLen := int(rest[0])
	if len(rest) != 1+strLen {
		return CollusionFlag{}, sdkerrors.Wrap(ErrInvalidVector, "truncated correlation")
	}
	corr, err := math.LegacyNewDecFromStr(string(rest[1 : 1+strLen]))
	if err != nil {
		return CollusionFlag{}, sdkerrors.Wrap(ErrInvalidVector, err.Error())
	}
	f.Correlation = corr
	return f, nil
}

// EncodeParams serializes module parameters:
//
//	[LE8 len][alpha][LE8 len][threshold][LE32 minCartelSize][LE8 len][tolerance]
func EncodeParams(p Params) ([]byte, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	buf := &bytes.Buffer{}
	for _, s := range []string{p.Alpha.String(), p.CollusionThreshold.String()} {
		buf.WriteByte(byte(len(s)))
		buf.WriteString(s)
	}
	var scratch [4]byte
	binary.LittleEndian.PutUint32(scratch[:], p.MinCartelSize)
	buf.Write(scratch[:])
	tol := p.NormalizationTolerance.String()
	buf.WriteByte(byte(len(tol)))
	buf.WriteString(tol)
	return buf.Bytes(), nil
}

// DecodeParams parses stored module parameters.
func DecodeParams(b []byte) (Params, error) {
	readStr := func(rest []byte) (string, []byte, error) {
		if len(rest) < 1 || len(rest) < 1+int(rest[0]) {
			return "", nil, sdkerrors.Wrap(ErrInvalidParams, "truncated parameter string")
		}
		n := int(rest[0])
		return string(rest[1 : 1+n]), rest[1+n:], nil
	}
	alphaStr, rest, err := readStr(b)
	if err != nil {
		return Params{}, err
	}
	thresholdStr, rest, err := readStr(rest)
	if err != nil {
		return Params{}, err
	}
	if len(rest) < 4 {
		return Params{}, sdkerrors.Wrap(ErrInvalidParams, "truncated parameters")
	}
	minCartel := binary.LittleEndian.Uint32(rest[:4])
	tolStr, rest, err := readStr(rest[4:])
	if err != nil {
		return Params{}, err
	}
	if len(rest) != 0 {
		return Params{}, sdkerrors.Wrap(ErrInvalidParams, "trailing parameter bytes")
	}
	p := Params{MinCartelSize: minCartel}
	if p.Alpha, err = math.LegacyNewDecFromStr(alphaStr); err != nil {
		return Params{}, sdkerrors.Wrap(ErrInvalidParams, err.Error())
	}
	if p.CollusionThreshold, err = math.LegacyNewDecFromStr(thresholdStr); err != nil {
		return Params{}, sdkerrors.Wrap(ErrInvalidParams, err.Error())
	}
	if p.NormalizationTolerance, err = math.LegacyNewDecFromStr(tolStr); err != nil {
		return Params{}, sdkerrors.Wrap(ErrInvalidParams, err.Error())
	}
	return p, p.Validate()
}

// valueCodec adapts a binary encode/decode pair to the collections value
// codec contract.
type valueCodec[T any] struct {
	name string
	enc  func(T) ([]byte, error)
	dec  func([]byte) (T, error)
}

func newValueCodec[T any](name string, enc func(T) ([]byte, error), dec func([]byte) (T, error)) collcodec.ValueCodec[T] {
	return valueCodec[T]{name: name, enc: enc, dec: dec}
}

func (c valueCodec[T]) Encode(value T) ([]byte, error) { return c.enc(value) }

func (c valueCodec[T]) Decode(b []byte) (T, error) { return c.dec(b) }

func (c valueCodec[T]) EncodeJSON(value T) ([]byte, error) { return json.Marshal(value) }

func (c valueCodec[T]) DecodeJSON(b []byte) (T, error) {
	var value T
	err := json.Unmarshal(b, &value)
	return value, err
}

func (c valueCodec[T]) Stringify(value T) string { return fmt.Sprintf("%v", value) }

func (c valueCodec[T]) ValueType() string { return c.name }

// Collection value codecs for the keeper schema.
var (
	WeightVectorValue = newValueCodec[WeightVector]("WeightVector", EncodeVector, DecodeVector)

	RewardRecordValue = newValueCodec[RewardRecord]("RewardRecord", EncodeRewardRecord, DecodeRewardRecord)

	CollusionFlagValue = newValueCodec[CollusionFlag]("CollusionFlag", EncodeCollusionFlag, DecodeCollusionFlag)

	ParamsValue = newValueCodec[Params]("Params", EncodeParams, DecodeParams)

	DecValue = newValueCodec[math.LegacyDec]("math.LegacyDec",
		func(d math.LegacyDec) ([]byte, error) {
			if d.IsNil() {
				return nil, sdkerrors.Wrap(ErrInvalidParams, "nil decimal")
			}
			return []byte(d.String()), nil
		},
		func(b []byte) (math.LegacyDec, error) {
			return math.LegacyNewDecFromStr(string(b))
		},
	)
)
