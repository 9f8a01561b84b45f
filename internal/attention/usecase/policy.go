package usecase

import "famsync-backend/internal/attention/domain"

// CanReceive decides whether a member with mode accepts a request of intensity
func CanReceive(mode domain.AttentionMode, intensity domain.Intensity) bool {
	if !mode.Enabled {
		return false
	}
	if intensity == domain.IntensityLoud {
		return mode.AllowLoud
	}
	return true
}
