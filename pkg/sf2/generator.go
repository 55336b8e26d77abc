package sf2

import (
	"errors"
	"fmt"
)

// GenOperator is an SFGenerator operator code.
type GenOperator uint16

// Generator operators, SF2.04 section 8.1.2.
const (
	OpStartAddrsOffset GenOperator = iota
	OpEndAddrsOffset
	OpStartloopAddrsOffset
	OpEndloopAddrsOffset
	OpStartAddrsCoarseOffset
	OpModLfoToPitch
	OpVibLfoToPitch
	OpModEnvToPitch
	OpInitialFilterFc
	OpInitialFilterQ
	OpModLfoToFilterFc
	OpModEnvToFilterFc
	OpEndAddrsCoarseOffset
	OpModLfoToVolume
	OpUnused1
	OpChorusEffectsSend
	OpReverbEffectsSend
	OpPan
	OpUnused2
	OpUnused3
	OpUnused4
	OpDelayModLFO
	OpFreqModLFO
	OpDelayVibLFO
	OpFreqVibLFO
	OpDelayModEnv
	OpAttackModEnv
	OpHoldModEnv
	OpDecayModEnv
	OpSustainModEnv
	OpReleaseModEnv
	OpKeynumToModEnvHold
	OpKeynumToModEnvDecay
	OpDelayVolEnv
	OpAttackVolEnv
	OpHoldVolEnv
	OpDecayVolEnv
	OpSustainVolEnv
	OpReleaseVolEnv
	OpKeynumToVolEnvHold
	OpKeynumToVolEnvDecay
	OpInstrument
	OpReserved1
	OpKeyRange
	OpVelRange
	OpStartloopAddrsCoarseOffset
	OpKeynum
	OpVelocity
	OpInitialAttenuation
	OpReserved2
	OpEndloopAddrsCoarseOffset
	OpCoarseTune
	OpFineTune
	OpSampleID
	OpSampleModes
	OpReserved3
	OpScaleTuning
	OpExclusiveClass
	OpOverridingRootKey
	OpUnused5
	OpEndOper
)

// AmountKind says how the 16 bits of a generator amount are interpreted.
type AmountKind uint8

const (
	AmountSigned AmountKind = iota
	AmountUnsigned
	AmountRange
)

func (k AmountKind) String() string {
	switch k {
	case AmountSigned:
		return "signed"
	case AmountUnsigned:
		return "unsigned"
	case AmountRange:
		return "range"
	}
	return fmt.Sprintf("AmountKind(%d)", uint8(k))
}

// Amount is a generator amount. The raw value is stored as it is laid out on
// disk; for ranges the low byte is lo and the high byte is hi.
type Amount struct {
	Kind AmountKind
	Raw  uint16
}

// Signed returns a signed amount.
func Signed(v int16) Amount { return Amount{Kind: AmountSigned, Raw: uint16(v)} }

// Unsigned returns an unsigned amount.
func Unsigned(v uint16) Amount { return Amount{Kind: AmountUnsigned, Raw: v} }

// Range returns a {lo, hi} range amount.
func Range(lo, hi uint8) Amount {
	return Amount{Kind: AmountRange, Raw: uint16(lo) | uint16(hi)<<8}
}

// Int16 interprets the amount as a signed value.
func (a Amount) Int16() int16 { return int16(a.Raw) }

// Lo returns the lower bound of a range amount.
func (a Amount) Lo() uint8 { return uint8(a.Raw) }

// Hi returns the upper bound of a range amount.
func (a Amount) Hi() uint8 { return uint8(a.Raw >> 8) }

// Generator is one pgen or igen record.
type Generator struct {
	Operator GenOperator
	Amount   Amount
}

// InstrumentGenerator links a preset zone to the instrument at index.
func InstrumentGenerator(index uint16) Generator {
	return Generator{Operator: OpInstrument, Amount: Unsigned(index)}
}

// SampleGenerator links an instrument zone to the sample header at index.
func SampleGenerator(index uint16) Generator {
	return Generator{Operator: OpSampleID, Amount: Unsigned(index)}
}

// TerminalGenerator returns the all-zero record closing a generator list.
func TerminalGenerator() Generator {
	return Generator{Operator: 0, Amount: Signed(0)}
}

// OverrideSpec binds a descriptor override field to its generator.
type OverrideSpec struct {
	Operator GenOperator
	Kind     AmountKind
}

// Overrides maps the per-zone override fields accepted in instrument
// descriptors to the generator each one would emit.
var Overrides = map[string]OverrideSpec{
	"mod_lfo_to_pitch":        {OpModLfoToPitch, AmountSigned},
	"vib_lfo_to_pitch":        {OpVibLfoToPitch, AmountSigned},
	"mod_env_to_pitch":        {OpModEnvToPitch, AmountSigned},
	"initial_filter_fc":       {OpInitialFilterFc, AmountSigned},
	"initial_filter_q":        {OpInitialFilterQ, AmountSigned},
	"mod_lfo_to_filter_fc":    {OpModLfoToFilterFc, AmountSigned},
	"mod_env_to_filter_fc":    {OpModEnvToFilterFc, AmountSigned},
	"mod_lfo_to_volume":       {OpModLfoToVolume, AmountSigned},
	"chorus_effects_send":     {OpChorusEffectsSend, AmountSigned},
	"reverb_effects_send":     {OpReverbEffectsSend, AmountSigned},
	"pan":                     {OpPan, AmountSigned},
	"delay_mod_lfo":           {OpDelayModLFO, AmountSigned},
	"freq_mod_lfo":            {OpFreqModLFO, AmountSigned},
	"delay_vib_lfo":           {OpDelayVibLFO, AmountSigned},
	"freq_vib_lfo":            {OpFreqVibLFO, AmountSigned},
	"delay_mod_env":           {OpDelayModEnv, AmountSigned},
	"attack_mod_env":          {OpAttackModEnv, AmountSigned},
	"hold_mod_env":            {OpHoldModEnv, AmountSigned},
	"decay_mod_env":           {OpDecayModEnv, AmountSigned},
	"sustain_mod_env":         {OpSustainModEnv, AmountSigned},
	"release_mod_env":         {OpReleaseModEnv, AmountSigned},
	"keynum_to_mod_env_hold":  {OpKeynumToModEnvHold, AmountSigned},
	"keynum_to_mod_env_decay": {OpKeynumToModEnvDecay, AmountSigned},
	"delay_vol_env":           {OpDelayVolEnv, AmountSigned},
	"attack_vol_env":          {OpAttackVolEnv, AmountSigned},
	"hold_vol_env":            {OpHoldVolEnv, AmountSigned},
	"decay_vol_env":           {OpDecayVolEnv, AmountSigned},
	"sustain_vol_env":         {OpSustainVolEnv, AmountSigned},
	"release_vol_env":         {OpReleaseVolEnv, AmountSigned},
	"keynum_to_vol_env_hold":  {OpKeynumToVolEnvHold, AmountSigned},
	"keynum_to_vol_env_decay": {OpKeynumToVolEnvDecay, AmountSigned},
	"key_range":               {OpKeyRange, AmountRange},
	"vel_range":               {OpVelRange, AmountRange},
	"keynum":                  {OpKeynum, AmountUnsigned},
	"velocity":                {OpVelocity, AmountUnsigned},
	"initial_attenuation":     {OpInitialAttenuation, AmountSigned},
	"coarse_tune":             {OpCoarseTune, AmountSigned},
	"fine_tune":               {OpFineTune, AmountSigned},
	"sample_modes":            {OpSampleModes, AmountUnsigned},
	"scale_tuning":            {OpScaleTuning, AmountSigned},
	"exclusive_class":         {OpExclusiveClass, AmountUnsigned},
	"overriding_root_key":     {OpOverridingRootKey, AmountSigned},
}

// ErrUnknownOverride is returned for an override field missing from Overrides.
var ErrUnknownOverride = errors.New("sf2: unknown generator override")

// OverrideGenerator builds the generator record for an override field.
func OverrideGenerator(field string, amount Amount) (Generator, error) {
	entry, ok := Overrides[field]
	if !ok {
		return Generator{}, fmt.Errorf("%w: %q", ErrUnknownOverride, field)
	}
	if entry.Kind != amount.Kind {
		return Generator{}, fmt.Errorf("sf2: override %q takes a %s amount, got %s", field, entry.Kind, amount.Kind)
	}
	return Generator{Operator: entry.Operator, Amount: amount}, nil
}
