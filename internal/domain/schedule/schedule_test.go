package schedule_test

import (
	"errors"
	"math"
	"testing"

	"github.com/okian/pistes/internal/domain/model"
	"github.com/okian/pistes/internal/domain/schedule"
	. "github.com/smartystreets/goconvey/convey"
)

const tolerance = 1e-9

func weapons(pistes ...int) []model.Group {
	names := []string{"Epee", "Foil", "Saber"}
	groups := make([]model.Group, len(pistes))
	for i, p := range pistes {
		groups[i] = model.Group{Name: names[i], Participants: 4, Resources: p}
	}
	return groups
}

func TestPairsAndRounds(t *testing.T) {
	Convey("Given participant and piste counts", t, func() {
		Convey("Then pairs follow n*(n-1)/2", func() {
			So(schedule.Pairs(2), ShouldEqual, 1)
			So(schedule.Pairs(4), ShouldEqual, 6)
			So(schedule.Pairs(7), ShouldEqual, 21)
		})

		Convey("Then rounds round up", func() {
			So(schedule.Rounds(4, 2), ShouldEqual, 3)
			So(schedule.Rounds(4, 4), ShouldEqual, 2)
			So(schedule.Rounds(4, 6), ShouldEqual, 1)
			So(schedule.Rounds(4, 10), ShouldEqual, 1)
			So(schedule.Rounds(5, 3), ShouldEqual, 4)
		})

		Convey("Then zero pistes yields the unbounded sentinel", func() {
			So(schedule.Rounds(4, 0), ShouldEqual, schedule.UnboundedRounds)
		})
	})
}

func TestCompute(t *testing.T) {
	Convey("Given a single group of 4 fencers on 2 pistes", t, func() {
		groups := []model.Group{{Name: "Epee", Participants: 4, Resources: 2}}

		Convey("When computing with a time unit of 5", func() {
			results, err := schedule.Compute(groups, 5, 2)

			Convey("Then rounds and time match the round-robin", func() {
				So(err, ShouldBeNil)
				So(results, ShouldHaveLength, 1)
				So(results[0].Name, ShouldEqual, "Epee")
				So(results[0].Rounds, ShouldEqual, 3)
				So(results[0].TimeRequired, ShouldEqual, 15)
				So(results[0].UtilizationRatio, ShouldAlmostEqual, 1.0, tolerance)
				So(results[0].Starved, ShouldBeFalse)
			})
		})
	})

	Convey("Given Epee, Foil and Saber with 4 fencers and 2 pistes each", t, func() {
		groups := weapons(2, 2, 2)

		Convey("When computing against a budget of 6", func() {
			results, err := schedule.Compute(groups, 5, 6)

			Convey("Then every group is perfectly proportional", func() {
				So(err, ShouldBeNil)
				So(results, ShouldHaveLength, 3)
				for i, r := range results {
					So(r.Name, ShouldEqual, groups[i].Name)
					So(r.Rounds, ShouldEqual, 3)
					So(r.TimeRequired, ShouldEqual, 15)
					So(r.UtilizationRatio, ShouldAlmostEqual, 1.0, tolerance)
				}
				So(schedule.Deviation(results), ShouldAlmostEqual, 0, tolerance)
			})
		})

		Convey("When computing against a larger budget than assigned", func() {
			results, err := schedule.Compute(groups, 5, 12)

			Convey("Then every group reads as under-resourced", func() {
				So(err, ShouldBeNil)
				for _, r := range results {
					So(r.UtilizationRatio, ShouldAlmostEqual, 0.5, tolerance)
				}
			})
		})
	})

	Convey("Given groups allocated in exact proportion to demand", t, func() {
		// 4 fencers on 4 pistes: 2 rounds, demand 8.
		// 5 fencers on 5 pistes: 2 rounds, demand 10.
		// 2 fencers on 1 piste:  1 round,  demand 2.
		groups := []model.Group{
			{Name: "Epee", Participants: 4, Resources: 4},
			{Name: "Foil", Participants: 5, Resources: 5},
			{Name: "Saber", Participants: 2, Resources: 1},
		}

		Convey("When the budget equals the assigned total", func() {
			results, err := schedule.Compute(groups, 3, 10)

			Convey("Then every ratio is 1", func() {
				So(err, ShouldBeNil)
				for _, r := range results {
					So(r.UtilizationRatio, ShouldAlmostEqual, 1.0, tolerance)
				}
			})
		})
	})

	Convey("Given a group with zero pistes", t, func() {
		groups := weapons(0, 3, 3)

		Convey("When computing", func() {
			results, err := schedule.Compute(groups, 5, 6)

			Convey("Then it is reported as starved without NaN", func() {
				So(err, ShouldBeNil)
				So(results[0].Starved, ShouldBeTrue)
				So(results[0].Rounds, ShouldEqual, schedule.UnboundedRounds)
				So(math.IsInf(results[0].TimeRequired, 1), ShouldBeTrue)
				So(results[0].UtilizationRatio, ShouldEqual, 0)
			})

			Convey("And the other groups share the demand between themselves", func() {
				So(results[1].Rounds, ShouldEqual, 2)
				So(results[1].UtilizationRatio, ShouldAlmostEqual, 1.0, tolerance)
				So(results[2].UtilizationRatio, ShouldAlmostEqual, 1.0, tolerance)
			})

			Convey("And the deviation is infinite", func() {
				So(math.IsInf(schedule.Deviation(results), 1), ShouldBeTrue)
			})
		})
	})

	Convey("Given every group has zero pistes and a zero budget", t, func() {
		groups := weapons(0, 0, 0)

		Convey("When computing", func() {
			results, err := schedule.Compute(groups, 5, 0)

			Convey("Then every ratio is the zero sentinel", func() {
				So(err, ShouldBeNil)
				for _, r := range results {
					So(r.Starved, ShouldBeTrue)
					So(math.IsNaN(r.UtilizationRatio), ShouldBeFalse)
					So(r.UtilizationRatio, ShouldEqual, 0)
				}
			})
		})
	})
}

func TestComputeValidation(t *testing.T) {
	Convey("Given invalid engine inputs", t, func() {
		Convey("When a group has fewer than 2 participants", func() {
			_, err := schedule.Compute([]model.Group{{Name: "Epee", Participants: 1, Resources: 1}}, 5, 1)
			So(errors.Is(err, schedule.ErrInvalidGroup), ShouldBeTrue)
			So(err.Error(), ShouldContainSubstring, "Epee")
		})

		Convey("When a group has negative pistes", func() {
			_, err := schedule.Compute([]model.Group{{Name: "Foil", Participants: 4, Resources: -1}}, 5, 1)
			So(errors.Is(err, schedule.ErrInvalidGroup), ShouldBeTrue)
		})

		Convey("When names repeat", func() {
			groups := []model.Group{
				{Name: "Epee", Participants: 4, Resources: 1},
				{Name: "Epee", Participants: 5, Resources: 1},
			}
			_, err := schedule.Compute(groups, 5, 2)
			So(errors.Is(err, schedule.ErrDuplicateGroup), ShouldBeTrue)
		})

		Convey("When the time unit is not positive", func() {
			_, err := schedule.Compute(weapons(2), 0, 2)
			So(errors.Is(err, schedule.ErrInvalidTimeUnit), ShouldBeTrue)

			_, err = schedule.Compute(weapons(2), math.NaN(), 2)
			So(errors.Is(err, schedule.ErrInvalidTimeUnit), ShouldBeTrue)
		})

		Convey("When the budget is negative", func() {
			_, err := schedule.Compute(weapons(2), 5, -1)
			So(errors.Is(err, schedule.ErrInvalidBudget), ShouldBeTrue)
		})

		Convey("When there are no groups", func() {
			_, err := schedule.Compute(nil, 5, 2)
			So(errors.Is(err, schedule.ErrNoGroups), ShouldBeTrue)
		})
	})
}

func TestEvaluateReusesBuffer(t *testing.T) {
	Convey("Given a result buffer", t, func() {
		buf := make([]model.ScheduleResult, 0, 3)

		Convey("When evaluating twice with different pistes", func() {
			first := schedule.Evaluate(buf, weapons(2, 2, 2), 5, 6)
			So(first[0].Rounds, ShouldEqual, 3)

			second := schedule.Evaluate(first, weapons(6, 0, 0), 5, 6)

			Convey("Then the second run fully replaces the first", func() {
				So(second, ShouldHaveLength, 3)
				So(second[0].Rounds, ShouldEqual, 1)
				So(second[1].Starved, ShouldBeTrue)
			})
		})
	})
}
