package builder

import (
	"github.com/carbocation/qtmatrix"
	"github.com/carbocation/qtmatrix/channel"
)

// UsefulQuantitationTypes keeps the types any derived matrix can draw on:
// preferred and masked-preferred data, the channel signals and backgrounds,
// background-subtracted channel A and present/absent calls.
func UsefulQuantitationTypes(policy *channel.Policy, qts []*qtmatrix.QuantitationType) []*qtmatrix.QuantitationType {
	if policy == nil {
		policy = channel.Default()
	}
	var out []*qtmatrix.QuantitationType
	for _, qt := range qts {
		if policy.Classify(qt) != channel.Other {
			out = append(out, qt)
		}
	}
	return out
}

// PreferredQuantitationTypes keeps preferred and masked-preferred types.
func PreferredQuantitationTypes(qts []*qtmatrix.QuantitationType) []*qtmatrix.QuantitationType {
	var out []*qtmatrix.QuantitationType
	for _, qt := range qts {
		if qt.IsPreferred || qt.IsMaskedPreferred {
			out = append(out, qt)
		}
	}
	return out
}

// MissingValueQuantitationTypes keeps PRESENTABSENT types.
func MissingValueQuantitationTypes(qts []*qtmatrix.QuantitationType) []*qtmatrix.QuantitationType {
	var out []*qtmatrix.QuantitationType
	for _, qt := range qts {
		if qt.StandardType == qtmatrix.StandardTypePresentAbsent {
			out = append(out, qt)
		}
	}
	return out
}
