package model_test

import (
	"testing"

	"github.com/okian/fila/internal/domain/category"
	"github.com/okian/fila/internal/domain/model"
	. "github.com/smartystreets/goconvey/convey"
)

func TestWorkerPermits(t *testing.T) {
	Convey("Given a worker permitted for two categories", t, func() {
		w := model.Worker{ID: 1, Permitted: []category.ID{category.SaleAllotment, category.Signed}}

		Convey("Then Permits matches exactly those categories", func() {
			So(w.Permits(category.SaleAllotment), ShouldBeTrue)
			So(w.Permits(category.Signed), ShouldBeTrue)
			So(w.Permits(category.SaleCaixa), ShouldBeFalse)
		})
	})

	Convey("Given a worker with no permissions", t, func() {
		w := model.Worker{ID: 2}

		Convey("Then nothing is permitted", func() {
			So(w.Permits(category.SaleAllotment), ShouldBeFalse)
		})
	})
}

func TestSnapshotWorkerIDs(t *testing.T) {
	Convey("Given a snapshot with a roster", t, func() {
		s := &model.Snapshot{Workers: []model.Worker{{ID: 3}, {ID: 1}, {ID: 2}}}

		Convey("Then WorkerIDs preserves roster order", func() {
			So(s.WorkerIDs(), ShouldResemble, []int64{3, 1, 2})
		})
	})
}
