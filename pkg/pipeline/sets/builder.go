package sets

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"ml-segregation-be/internal/entity"
)

// ErrEmptyInput is returned when there are no sessions to partition.
var ErrEmptyInput = errors.New("no sessions to partition")

// Ratios holds the fixed train/validation/test split proportions.
type Ratios struct {
	Train      float64
	Validation float64
	Test       float64
}

func DefaultRatios() Ratios {
	return Ratios{Train: 0.70, Validation: 0.15, Test: 0.15}
}

func (r Ratios) Validate() error {
	if r.Train < 0 || r.Validation < 0 || r.Test < 0 {
		return fmt.Errorf("split ratios must be non-negative: %+v", r)
	}
	if math.Abs(r.Train+r.Validation+r.Test-1.0) > 1e-9 {
		return fmt.Errorf("split ratios must sum to 1.0: %+v", r)
	}
	return nil
}

// Record is one session as serialized toward the development system.
type Record struct {
	Uuid            string  `json:"uuid"`
	Label           string  `json:"label"`
	MedianLongitude float64 `json:"median_longitude"`
	MedianLatitude  float64 `json:"median_latitude"`
	MeanDiffTime    float64 `json:"mean_diff_time"`
	MeanDiffAmount  float64 `json:"mean_diff_amount"`
	MedianTargetIP  string  `json:"median_targetIP"`
	MedianDestIP    string  `json:"median_destIP"`
}

// Bundle is the partitioned learning-set payload. It lives only between
// set generation and dispatch.
type Bundle struct {
	Train       []Record       `json:"train"`
	Validation  []Record       `json:"validation"`
	Test        []Record       `json:"test"`
	LabelCounts map[string]int `json:"label_counts"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// SessionUuids returns the identifiers of every session in the bundle.
func (b *Bundle) SessionUuids() []string {
	uuids := make([]string, 0, b.Size())
	for _, part := range [][]Record{b.Train, b.Validation, b.Test} {
		for _, rec := range part {
			uuids = append(uuids, rec.Uuid)
		}
	}
	return uuids
}

func (b *Bundle) Size() int {
	return len(b.Train) + len(b.Validation) + len(b.Test)
}

// Builder partitions approved sessions into learning sets. The partition is
// a pure transform: sessions are sorted by uuid and split per label at the
// configured ratios, so the same input always yields the same bundle.
type Builder struct {
	ratios Ratios
}

func NewBuilder(ratios Ratios) (*Builder, error) {
	if err := ratios.Validate(); err != nil {
		return nil, err
	}
	return &Builder{ratios: ratios}, nil
}

func (b *Builder) Build(sessions []*entity.PreparedSession) (*Bundle, error) {
	if len(sessions) == 0 {
		return nil, ErrEmptyInput
	}

	byLabel := make(map[string][]*entity.PreparedSession)
	for _, s := range sessions {
		byLabel[s.Label] = append(byLabel[s.Label], s)
	}

	labels := make([]string, 0, len(byLabel))
	for label := range byLabel {
		labels = append(labels, label)
	}
	sort.Strings(labels)

	bundle := &Bundle{
		LabelCounts: make(map[string]int, len(labels)),
		GeneratedAt: time.Now().UTC(),
	}

	for _, label := range labels {
		group := byLabel[label]
		sort.Slice(group, func(i, j int) bool { return group[i].Uuid < group[j].Uuid })

		nTrain := int(math.Floor(float64(len(group)) * b.ratios.Train))
		nValidation := int(math.Floor(float64(len(group)) * b.ratios.Validation))

		for i, s := range group {
			rec := toRecord(s)
			switch {
			case i < nTrain:
				bundle.Train = append(bundle.Train, rec)
			case i < nTrain+nValidation:
				bundle.Validation = append(bundle.Validation, rec)
			default:
				bundle.Test = append(bundle.Test, rec)
			}
		}
		bundle.LabelCounts[label] = len(group)
	}

	return bundle, nil
}

func toRecord(s *entity.PreparedSession) Record {
	return Record{
		Uuid:            s.Uuid,
		Label:           s.Label,
		MedianLongitude: s.MedianLongitude,
		MedianLatitude:  s.MedianLatitude,
		MeanDiffTime:    s.MeanDiffTime,
		MeanDiffAmount:  s.MeanDiffAmount,
		MedianTargetIP:  s.MedianTargetIP,
		MedianDestIP:    s.MedianDestIP,
	}
}
