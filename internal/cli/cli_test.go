package cli_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/jessevdk/go-flags"
	"github.com/okian/pistes/internal/adapters/http/api"
	service "github.com/okian/pistes/internal/app"
	"github.com/okian/pistes/internal/cli"
	"github.com/okian/pistes/internal/domain/allocation"
	"github.com/okian/pistes/pkg/logger"
	. "github.com/smartystreets/goconvey/convey"
)

func init() {
	if err := logger.Init(); err != nil {
		panic(err)
	}
}

var weapons = []string{"-g", "Epee:4:2", "-g", "Foil:4:2", "-g", "Saber:4:2", "-t", "5", "-b", "6"}

func run(args ...string) (string, error) {
	var stdout, stderr bytes.Buffer
	err := cli.New(context.Background(), &stdout, &stderr).Run(append([]string{"--log-format", "text"}, args...))
	return stdout.String(), err
}

func TestScheduleCommand(t *testing.T) {
	Convey("Given the schedule command", t, func() {
		Convey("When asking for JSON", func() {
			out, err := run(append([]string{"schedule", "--json"}, weapons...)...)

			Convey("Then every group should take three rounds", func() {
				So(err, ShouldBeNil)
				var r struct {
					Groups []struct {
						Name   string  `json:"name"`
						Rounds *int    `json:"rounds"`
						Ratio  float64 `json:"utilization_ratio"`
					} `json:"groups"`
					Allocated int      `json:"allocated"`
					Score     *float64 `json:"score"`
				}
				So(json.Unmarshal([]byte(out), &r), ShouldBeNil)
				So(r.Groups, ShouldHaveLength, 3)
				So(*r.Groups[0].Rounds, ShouldEqual, 3)
				So(r.Groups[0].Ratio, ShouldAlmostEqual, 1.0, 1e-9)
				So(r.Allocated, ShouldEqual, 6)
				So(*r.Score, ShouldAlmostEqual, 0, 1e-9)
			})
		})

		Convey("When a group has no piste", func() {
			out, err := run("schedule", "-g", "Epee:4", "-g", "Foil:4:2", "-b", "2")

			Convey("Then the table should show it can never finish", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "∞")
				So(out, ShouldContainSubstring, "Allocated 2 of 2 pistes")
			})
		})

		Convey("When a group flag is malformed", func() {
			_, err := run("schedule", "-g", "Epee")

			Convey("Then it should fail", func() {
				So(err, ShouldWrap, cli.ErrInvalidGroupFlag)
			})
		})
	})
}

func TestSuggestCommand(t *testing.T) {
	Convey("Given the suggest command", t, func() {
		Convey("When suggesting for balanced weapons", func() {
			out, err := run(append([]string{"suggest"}, weapons...)...)

			Convey("Then the table should show the even split", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "Saber")
				So(out, ShouldContainSubstring, "1.00")
				So(out, ShouldContainSubstring, "15 min")
				So(out, ShouldContainSubstring, "Scored 28 of 28 candidate splits")
			})
		})

		Convey("When the search is over the cap", func() {
			_, err := run(append([]string{"suggest", "--max-compositions", "5"}, weapons...)...)

			Convey("Then it should be refused", func() {
				So(err, ShouldWrap, allocation.ErrSearchSpaceTooLarge)
			})

			Convey("And --estimate should fall back to the proportional split", func() {
				out, err := run(append([]string{"suggest", "--max-compositions", "5", "--estimate", "--json"}, weapons...)...)
				So(err, ShouldBeNil)
				var r struct {
					Groups []struct {
						Pistes int `json:"pistes"`
					} `json:"groups"`
				}
				So(json.Unmarshal([]byte(out), &r), ShouldBeNil)
				So(r.Groups, ShouldHaveLength, 3)
				for _, g := range r.Groups {
					So(g.Pistes, ShouldEqual, 2)
				}
			})
		})
	})
}

func TestCountCommand(t *testing.T) {
	Convey("Given the count command", t, func() {
		Convey("When counting ten groups over forty pistes", func() {
			out, err := run("count", "-n", "10", "-b", "40")

			Convey("Then the count should be grouped by thousands", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "2,054,455,634 candidate splits")
			})
		})

		Convey("When counting zero groups", func() {
			_, err := run("count", "-n", "0")

			Convey("Then the shape should be rejected", func() {
				So(err, ShouldWrap, allocation.ErrInvalidShape)
			})
		})
	})
}

func TestHelp(t *testing.T) {
	Convey("Given --help", t, func() {
		_, err := run("--help")

		Convey("Then go-flags should report a help error", func() {
			var ferr *flags.Error
			So(errors.As(err, &ferr), ShouldBeTrue)
			So(ferr.Type, ShouldEqual, flags.ErrHelp)
			So(ferr.Message, ShouldContainSubstring, "suggest")
		})
	})
}

func TestLoadCommand(t *testing.T) {
	Convey("Given a running API server", t, func() {
		svc := service.New()
		So(svc.Start(context.Background()), ShouldBeNil)
		defer svc.Stop()
		mux := http.NewServeMux()
		api.NewServer(svc, svc, 0).Register(context.Background(), mux)
		srv := httptest.NewServer(mux)
		defer srv.Close()

		Convey("When driving it with generated requests", func() {
			out, err := run("load", "--url", srv.URL, "-n", "40", "-w", "4")

			Convey("Then every request should succeed", func() {
				So(err, ShouldBeNil)
				So(out, ShouldContainSubstring, "40")
			})
		})

		Convey("When the server is unreachable", func() {
			_, err := run("load", "--url", "http://127.0.0.1:1", "-n", "2", "-w", "1", "--timeout", "500ms")

			Convey("Then the run should report failures", func() {
				So(err, ShouldWrap, cli.ErrLoadFailed)
			})
		})
	})
}
