package model

import (
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	. "github.com/smartystreets/goconvey/convey"
)

func decode(body string) Submission {
	var s Submission
	dec := json.NewDecoder(strings.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&s); err != nil {
		panic(err)
	}
	return s
}

func TestSubmissionValidate(t *testing.T) {
	Convey("Given client payloads", t, func() {
		Convey("A valid payload is normalized", func() {
			score, err := decode(`{"email":"  Alice@Example.COM ","guesses":4,"elapsedSec":73,"consent":true}`).Validate()
			So(err, ShouldBeNil)
			So(score, ShouldResemble, Score{Email: "alice@example.com", Guesses: 4, ElapsedSec: 73})
		})

		Convey("Consent is checked before anything else", func() {
			for _, body := range []string{
				`{"email":"x","guesses":0,"elapsedSec":-1,"consent":false}`,
				`{"email":"a@b.c","guesses":1,"elapsedSec":0}`,
				`{"email":"a@b.c","guesses":1,"elapsedSec":0,"consent":0}`,
				`{"email":"a@b.c","guesses":1,"elapsedSec":0,"consent":""}`,
				`{"email":"a@b.c","guesses":1,"elapsedSec":0,"consent":null}`,
			} {
				_, err := decode(body).Validate()
				So(errors.Is(err, ErrConsentRequired), ShouldBeTrue)
			}
		})

		Convey("Loose truthy consent values are accepted", func() {
			for _, consent := range []string{`1`, `"yes"`, `"false"`, `{}`, `[]`} {
				_, err := decode(`{"email":"a@b.c","guesses":1,"elapsedSec":0,"consent":` + consent + `}`).Validate()
				So(err, ShouldBeNil)
			}
		})

		Convey("Field rules reject the rest", func() {
			for _, body := range []string{
				`{"email":"nobody","guesses":1,"elapsedSec":0,"consent":true}`,
				`{"email":42,"guesses":1,"elapsedSec":0,"consent":true}`,
				`{"email":"a@b.c","guesses":0,"elapsedSec":0,"consent":true}`,
				`{"email":"a@b.c","guesses":2.5,"elapsedSec":0,"consent":true}`,
				`{"email":"a@b.c","guesses":"3","elapsedSec":0,"consent":true}`,
				`{"email":"a@b.c","guesses":3,"elapsedSec":-1,"consent":true}`,
				`{"email":"a@b.c","guesses":3,"elapsedSec":1e300,"consent":true}`,
				`{"email":"a@b.c","guesses":3,"consent":true}`,
			} {
				_, err := decode(body).Validate()
				So(errors.Is(err, ErrInvalidPayload), ShouldBeTrue)
			}
		})

		Convey("Integral floats count as integers", func() {
			score, err := decode(`{"email":"a@b.c","guesses":3.0,"elapsedSec":0,"consent":true}`).Validate()
			So(err, ShouldBeNil)
			So(score.Guesses, ShouldEqual, 3)
		})

		Convey("Typed submissions validate the same way", func() {
			_, err := NewSubmission("a@b.c", 2, 10, true).Validate()
			So(err, ShouldBeNil)
			_, err = NewSubmission("a@b.c", 2, 10, false).Validate()
			So(errors.Is(err, ErrConsentRequired), ShouldBeTrue)
			So(truthy(math.NaN()), ShouldBeFalse)
		})
	})
}

func TestEntryOrdering(t *testing.T) {
	Convey("Less orders by guesses, elapsed, then creation", t, func() {
		t0 := time.Unix(100, 0)
		a := Entry{Guesses: 3, ElapsedSec: 50, CreatedAt: t0}
		b := Entry{Guesses: 3, ElapsedSec: 40, CreatedAt: t0.Add(time.Second)}
		c := Entry{Guesses: 3, ElapsedSec: 40, CreatedAt: t0.Add(2 * time.Second)}
		d := Entry{Guesses: 2, ElapsedSec: 90, CreatedAt: t0.Add(3 * time.Second)}

		So(Less(d, b), ShouldBeTrue)
		So(Less(b, a), ShouldBeTrue)
		So(Less(b, c), ShouldBeTrue)
		So(Less(c, b), ShouldBeFalse)
		So(Less(a, a), ShouldBeFalse)
	})

	Convey("Public drops id and consent", t, func() {
		e := Entry{ID: "x", Email: "a@b.c", Guesses: 1, ElapsedSec: 2, Consent: true, CreatedAt: time.Unix(5, 0)}
		p := e.Public()
		So(p.Email, ShouldEqual, "a@b.c")
		So(p.Guesses, ShouldEqual, 1)
		So(p.ElapsedSec, ShouldEqual, 2)
		So(p.CreatedAt, ShouldEqual, time.Unix(5, 0))
	})
}
