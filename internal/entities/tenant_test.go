package entities

import "testing"

func TestEffectiveTemperature(t *testing.T) {
	zero, hot := 0.0, 1.3
	tests := []struct {
		name string
		cfg  *BotConfig
		want float64
	}{
		{"no config", nil, DefaultTemperature},
		{"unset", &BotConfig{}, DefaultTemperature},
		{"explicit zero", &BotConfig{Temperature: &zero}, 0},
		{"explicit value", &BotConfig{Temperature: &hot}, 1.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.cfg.EffectiveTemperature(); got != tt.want {
				t.Errorf("got %v, want %v", got, tt.want)
			}
		})
	}
}
