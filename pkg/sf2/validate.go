package sf2

// Minimum sizes for a sample and its loop, in sample points.
const (
	MinSampleLen = 48
	MinLoopLen   = 32
	MinLoopLead  = 8
	MinLoopTail  = 8
)

// ValidateString checks that value is ASCII and fits into limit bytes.
func ValidateString(value string, limit int) error {
	for i := 0; i < len(value); i++ {
		if value[i] > 0x7F {
			return ErrStringNonASCII
		}
	}
	if len(value) > limit {
		return &StringLimitError{Limit: limit, Len: len(value)}
	}
	return nil
}

// ValidateName checks a preset, instrument or sample name.
func ValidateName(name string) error {
	return ValidateString(name, NameSize)
}

// Validate checks the loop and length rules for a sample header. The EOS
// record must have every numeric field set to zero.
func (h SampleHeader) Validate() error {
	if h.IsTerminal() {
		if h.Start != 0 || h.End != 0 || h.StartLoop != 0 || h.EndLoop != 0 ||
			h.SampleRate != 0 || h.OriginalPitch != 0 || h.PitchCorrection != 0 ||
			h.SampleLink != 0 || h.SampleType != 0 {
			return ErrSampleTerminalNotNull
		}
		return nil
	}

	start, end := int64(h.Start), int64(h.End)
	startLoop, endLoop := int64(h.StartLoop), int64(h.EndLoop)

	if end-start < MinSampleLen {
		return ErrSampleTooShort
	}
	if endLoop-startLoop < MinLoopLen {
		return ErrSampleLoopTooShort
	}
	if startLoop-start < MinLoopLead {
		return ErrSampleLoopNotEnoughLead
	}
	if end-endLoop < MinLoopTail {
		return ErrSampleLoopNotEnoughTail
	}
	return nil
}
