package burst

import (
	"math"
	"time"

	"github.com/RyanBlaney/sonido-tfplane/algorithms/tfplane"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// ChannelSummary describes one channel of a plane. Mean, StdDev and Peak are
// of the channel samples divided by the channel's RMS.
type ChannelSummary struct {
	Index int     `json:"index" msgpack:"index"`
	FLow  float64 `json:"flow" msgpack:"flow"`
	RMS   float64 `json:"rms" msgpack:"rms"`
	// TwiceOverlap is with the next channel; 0 for the last channel.
	TwiceOverlap float64 `json:"twice_overlap" msgpack:"twice_overlap"`
	Mean         float64 `json:"mean" msgpack:"mean"`
	StdDev       float64 `json:"std_dev" msgpack:"std_dev"`
	Peak         float64 `json:"peak" msgpack:"peak"`
}

// PlaneSummary describes a whole plane.
type PlaneSummary struct {
	Name     string           `json:"name" msgpack:"name"`
	Epoch    time.Time        `json:"epoch" msgpack:"epoch"`
	FLow     float64          `json:"flow" msgpack:"flow"`
	FHigh    float64          `json:"fhigh" msgpack:"fhigh"`
	DeltaF   float64          `json:"delta_f" msgpack:"delta_f"`
	Samples  int              `json:"samples" msgpack:"samples"`
	Channels []ChannelSummary `json:"channels" msgpack:"channels"`

	// LoudestChannel has the largest normalised peak.
	LoudestChannel int `json:"loudest_channel" msgpack:"loudest_channel"`
}

// Summarize computes per-channel statistics of plane.
func Summarize(plane *tfplane.Plane) *PlaneSummary {
	summary := &PlaneSummary{
		Name:     plane.Name,
		Epoch:    plane.Epoch,
		FLow:     plane.FLow,
		FHigh:    plane.FHigh(),
		DeltaF:   plane.DeltaF,
		Channels: make([]ChannelSummary, plane.Channels),
	}

	var normalised []float64
	loudest := math.Inf(-1)

	for i, ch := range plane.Channel {
		cs := ChannelSummary{
			Index: i,
			FLow:  plane.ChannelFlow(i),
			RMS:   plane.ChannelRMS[i],
		}
		if i < len(plane.TwiceChannelOverlap) {
			cs.TwiceOverlap = plane.TwiceChannelOverlap[i]
		}

		summary.Samples = len(ch.Data)
		if len(ch.Data) > 0 && cs.RMS > 0 {
			normalised = append(normalised[:0], ch.Data...)
			floats.Scale(1/cs.RMS, normalised)
			cs.Mean, cs.StdDev = stat.MeanStdDev(normalised, nil)
			cs.Peak = math.Max(floats.Max(normalised), -floats.Min(normalised))
		}

		if cs.Peak > loudest {
			loudest = cs.Peak
			summary.LoudestChannel = i
		}
		summary.Channels[i] = cs
	}

	return summary
}
