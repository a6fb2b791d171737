package service

import (
	"cmp"
	"slices"
	"strconv"

	"github.com/pkordes/school-directory/internal/domain"
)

// Summarize computes the statistics for one filtered result set. by selects
// the grouping dimension; top > 0 keeps only the largest top groups.
// It is a pure function of its inputs.
func Summarize(views []domain.SchoolView, by domain.Dimension, top int) domain.Summary {
	sum := domain.Summary{
		Count:     len(views),
		GroupedBy: by,
		Groups:    []domain.GroupStat{},
		Levels:    make([]domain.LevelStat, 0, len(domain.AllLevels())),
		Breadth:   []domain.GroupStat{},
	}

	var websites, phones int
	groups := map[string]*tally{}
	breadth := make([]tally, len(domain.SelectableLevels())+1)
	levels := make(map[domain.Level]*domain.LevelStat, len(domain.AllLevels()))
	for _, l := range domain.AllLevels() {
		levels[l] = &domain.LevelStat{Level: l}
	}

	for _, v := range views {
		enrollment := int64(0)
		if v.EnrollmentTotal != nil {
			enrollment = int64(*v.EnrollmentTotal)
		}
		hasWebsite := v.HasWebsite != nil && *v.HasWebsite

		sum.EnrollmentSum += enrollment
		if hasWebsite {
			websites++
		}
		if v.Phone != nil && *v.Phone != "" {
			phones++
		}
		if v.IsClient {
			sum.ClientCount++
		}

		key := domain.UnknownGroup
		if k, ok := domain.Value(by.Of(v.School)); ok {
			key = k
		}
		g, ok := groups[key]
		if !ok {
			g = &tally{}
			groups[key] = g
		}
		g.add(enrollment, hasWebsite)

		offered := 0
		for _, l := range domain.SelectableLevels() {
			if v.Levels.Has(l) {
				offered++
			}
		}
		breadth[offered].add(enrollment, hasWebsite)

		for _, l := range domain.AllLevels() {
			if v.Levels.Has(l) {
				levels[l].Count++
				levels[l].EnrollmentSum += enrollment
			}
		}
	}

	if sum.Count > 0 {
		sum.EnrollmentMean = float64(sum.EnrollmentSum) / float64(sum.Count)
	}
	sum.WebsitePct = percent(websites, sum.Count)
	sum.PhonePct = percent(phones, sum.Count)

	for key, g := range groups {
		sum.Groups = append(sum.Groups, g.stat(key))
	}
	slices.SortFunc(sum.Groups, func(a, b domain.GroupStat) int {
		if c := cmp.Compare(b.Count, a.Count); c != 0 {
			return c
		}
		return cmp.Compare(a.Key, b.Key)
	})
	if top > 0 && len(sum.Groups) > top {
		sum.Groups = sum.Groups[:top]
	}

	for n, g := range breadth {
		sum.Breadth = append(sum.Breadth, g.stat(strconv.Itoa(n)))
	}

	for _, l := range domain.AllLevels() {
		ls := levels[l]
		ls.Pct = percent(ls.Count, sum.Count)
		sum.Levels = append(sum.Levels, *ls)
	}
	return sum
}

// tally accumulates one group.
type tally struct {
	count      int
	enrollment int64
	websites   int
}

func (t *tally) add(enrollment int64, hasWebsite bool) {
	t.count++
	t.enrollment += enrollment
	if hasWebsite {
		t.websites++
	}
}

func (t tally) stat(key string) domain.GroupStat {
	return domain.GroupStat{
		Key:           key,
		Count:         t.count,
		EnrollmentSum: t.enrollment,
		WebsitePct:    percent(t.websites, t.count),
	}
}

// percent returns n/d as a percentage with one decimal, rounded half away
// from zero. The rounding is done on integers so that exact halves such as
// 1/16 = 6.25% always round up to 6.3. d == 0 yields 0.
func percent(n, d int) float64 {
	if d <= 0 || n <= 0 {
		return 0
	}
	tenths := (2000*int64(n) + int64(d)) / (2 * int64(d))
	return float64(tenths) / 10
}
