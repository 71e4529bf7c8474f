package service_test

import (
	"sync"
	"testing"

	repository "github.com/okian/pistes/internal/adapters/repository"
	service "github.com/okian/pistes/internal/app"
	"github.com/okian/pistes/internal/domain/model"
	"github.com/okian/pistes/internal/domain/schedule"
	. "github.com/smartystreets/goconvey/convey"
)

func TestServicePlans(t *testing.T) {
	Convey("Given a service with a default plan", t, func() {
		svc, ctx, done := started(service.WithMinBudget(3))
		defer done()

		plan, err := svc.CreatePlan(ctx, service.PlanInput{})
		So(err, ShouldBeNil)

		Convey("Then the plan should start from the defaults", func() {
			So(plan.ID, ShouldNotBeEmpty)
			So(plan.Groups, ShouldResemble, weapons())
			So(plan.TimeUnit, ShouldEqual, 5)
			So(plan.Budget, ShouldEqual, 6)
			So(plan.Results, ShouldHaveLength, 3)
			So(plan.Suggested, ShouldResemble, model.Allocation{2, 2, 2})
			So(service.Status(plan), ShouldResemble, service.AllocationStatus{
				Allocated: 6, Remaining: 0, State: service.StateExact,
			})
		})

		Convey("When raising a group with the budget fully allocated", func() {
			_, err := svc.SetResources(ctx, plan.ID, "Epee", 3)

			Convey("Then it should be refused and the plan kept", func() {
				So(err, ShouldWrap, service.ErrBudgetExhausted)
				got, err := svc.GetPlan(ctx, plan.ID)
				So(err, ShouldBeNil)
				So(got.Groups[0].Resources, ShouldEqual, 2)
				So(got.Version, ShouldEqual, plan.Version)
			})
		})

		Convey("When lowering a group", func() {
			updated, err := svc.SetResources(ctx, plan.ID, "Epee", 1)

			Convey("Then the results should be recomputed", func() {
				So(err, ShouldBeNil)
				So(updated.Groups[0].Resources, ShouldEqual, 1)
				So(updated.Results[0].Rounds, ShouldEqual, 6)
				So(updated.Results[0].TimeRequired, ShouldEqual, 30)
				So(service.Status(updated), ShouldResemble, service.AllocationStatus{
					Allocated: 5, Remaining: 1, State: service.StateUnder,
				})
			})

			Convey("And raising it again should be allowed", func() {
				again, err := svc.SetResources(ctx, plan.ID, "Epee", 2)
				So(err, ShouldBeNil)
				So(again.Groups[0].Resources, ShouldEqual, 2)
			})

			Convey("And applying the suggestion should restore the even split", func() {
				applied, err := svc.ApplySuggested(ctx, plan.ID)
				So(err, ShouldBeNil)
				So(model.Current(applied.Groups), ShouldResemble, model.Allocation{2, 2, 2})
			})
		})

		Convey("When jumping past the budget from below", func() {
			_, err := svc.SetResources(ctx, plan.ID, "Epee", 1)
			So(err, ShouldBeNil)
			over, err := svc.SetResources(ctx, plan.ID, "Epee", 4)

			Convey("Then the plan should report an over-allocation", func() {
				So(err, ShouldBeNil)
				So(service.Status(over).State, ShouldEqual, service.StateOver)
				So(service.Status(over).Remaining, ShouldEqual, -2)
			})
		})

		Convey("When naming an unknown group", func() {
			_, err := svc.SetResources(ctx, plan.ID, "Sabre", 1)

			Convey("Then it should be reported", func() {
				So(err, ShouldWrap, service.ErrGroupNotFound)
			})
		})

		Convey("When setting negative pistes", func() {
			_, err := svc.SetResources(ctx, plan.ID, "Epee", -1)

			Convey("Then the group should be rejected", func() {
				So(err, ShouldWrap, schedule.ErrInvalidGroup)
			})
		})

		Convey("When growing a group", func() {
			updated, err := svc.SetParticipants(ctx, plan.ID, "Saber", 6)

			Convey("Then the suggestion should still use the whole budget", func() {
				So(err, ShouldBeNil)
				So(updated.Groups[2].Participants, ShouldEqual, 6)
				So(updated.Suggested.Sum(), ShouldEqual, 6)
				So(updated.Results[2].Rounds, ShouldEqual, 8)
			})
		})

		Convey("When growing a group and raising its pistes past the budget together", func() {
			participants, pistes := 9, 5
			_, err := svc.UpdateGroup(ctx, plan.ID, "Epee", service.GroupUpdate{
				Participants: &participants,
				Pistes:       &pistes,
			})

			Convey("Then neither change should be stored", func() {
				So(err, ShouldWrap, service.ErrBudgetExhausted)
				got, err := svc.GetPlan(ctx, plan.ID)
				So(err, ShouldBeNil)
				So(got.Groups[0].Participants, ShouldEqual, 4)
				So(got.Groups[0].Resources, ShouldEqual, 2)
				So(got.Version, ShouldEqual, plan.Version)
			})
		})

		Convey("When growing a group and lowering its pistes together", func() {
			participants, pistes := 6, 1
			updated, err := svc.UpdateGroup(ctx, plan.ID, "Epee", service.GroupUpdate{
				Participants: &participants,
				Pistes:       &pistes,
			})

			Convey("Then both changes should land in one version", func() {
				So(err, ShouldBeNil)
				So(updated.Groups[0].Participants, ShouldEqual, 6)
				So(updated.Groups[0].Resources, ShouldEqual, 1)
				So(updated.Version, ShouldEqual, plan.Version+1)
			})
		})

		Convey("When an update names no field", func() {
			_, err := svc.UpdateGroup(ctx, plan.ID, "Epee", service.GroupUpdate{})

			Convey("Then it should be refused", func() {
				So(err, ShouldWrap, service.ErrEmptyUpdate)
			})
		})

		Convey("When shrinking a group below two fencers", func() {
			_, err := svc.SetParticipants(ctx, plan.ID, "Saber", 1)

			Convey("Then the change should be rejected", func() {
				So(err, ShouldWrap, schedule.ErrInvalidGroup)
			})
		})

		Convey("When lowering the budget under the minimum", func() {
			budget := 1
			updated, err := svc.UpdateSettings(ctx, plan.ID, service.Settings{Budget: &budget})

			Convey("Then it should be clamped", func() {
				So(err, ShouldBeNil)
				So(updated.Budget, ShouldEqual, 3)
				So(updated.Suggested, ShouldResemble, model.Allocation{1, 1, 1})
				So(service.Status(updated).State, ShouldEqual, service.StateOver)
			})
		})

		Convey("When changing the time unit", func() {
			unit := 3.0
			updated, err := svc.UpdateSettings(ctx, plan.ID, service.Settings{TimeUnit: &unit})

			Convey("Then times should follow", func() {
				So(err, ShouldBeNil)
				So(updated.Results[0].TimeRequired, ShouldEqual, 9)
			})
		})

		Convey("When setting an invalid time unit", func() {
			unit := 0.0
			_, err := svc.UpdateSettings(ctx, plan.ID, service.Settings{TimeUnit: &unit})

			Convey("Then it should be rejected", func() {
				So(err, ShouldWrap, schedule.ErrInvalidTimeUnit)
			})
		})

		Convey("When deleting the plan", func() {
			So(svc.DeletePlan(ctx, plan.ID), ShouldBeNil)

			Convey("Then it should be gone", func() {
				_, err := svc.GetPlan(ctx, plan.ID)
				So(err, ShouldWrap, repository.ErrNotFound)
				plans, err := svc.ListPlans(ctx)
				So(err, ShouldBeNil)
				So(plans, ShouldBeEmpty)
			})
		})
	})
}

func TestServicePlanInput(t *testing.T) {
	Convey("Given a started service", t, func() {
		svc, ctx, done := started()
		defer done()

		Convey("When creating a plan with explicit values", func() {
			plan, err := svc.CreatePlan(ctx, service.PlanInput{
				Groups: []model.Group{
					{Name: "Epee", Participants: 5, Resources: 1},
					{Name: "Foil", Participants: 4, Resources: 1},
				},
				TimeUnit: 4,
				Budget:   4,
			})

			Convey("Then they should be kept", func() {
				So(err, ShouldBeNil)
				So(plan.TimeUnit, ShouldEqual, 4)
				So(plan.Budget, ShouldEqual, 4)
				So(plan.Groups, ShouldHaveLength, 2)
				So(plan.Suggested.Sum(), ShouldEqual, 4)
			})
		})

		Convey("When creating an invalid plan", func() {
			_, err := svc.CreatePlan(ctx, service.PlanInput{
				Groups: []model.Group{
					{Name: "Epee", Participants: 4},
					{Name: "Epee", Participants: 4},
				},
			})

			Convey("Then nothing should be stored", func() {
				So(err, ShouldWrap, schedule.ErrDuplicateGroup)
				plans, err := svc.ListPlans(ctx)
				So(err, ShouldBeNil)
				So(plans, ShouldBeEmpty)
			})
		})
	})
}

func TestServiceConcurrency(t *testing.T) {
	Convey("Given a plan edited from many goroutines", t, func() {
		svc, ctx, done := started()
		defer done()

		plan, err := svc.CreatePlan(ctx, service.PlanInput{})
		So(err, ShouldBeNil)

		const writers = 20
		var wg sync.WaitGroup
		for i := 0; i < writers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				_, _ = svc.SetParticipants(ctx, plan.ID, "Foil", 2+i%5)
				_, _ = svc.Suggest(ctx, weapons(), 5, 6)
			}(i)
		}
		wg.Wait()

		Convey("Then every mutation should have been applied once", func() {
			got, err := svc.GetPlan(ctx, plan.ID)
			So(err, ShouldBeNil)
			So(got.Version, ShouldEqual, plan.Version+writers)
			So(got.Suggested.Sum(), ShouldEqual, 6)
		})
	})
}
