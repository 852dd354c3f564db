package auth_test

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/okian/skillhub/internal/auth"
	. "github.com/smartystreets/goconvey/convey"
)

func TestGate(t *testing.T) {
	Convey("Given a gate without a secret", t, func() {
		g := auth.NewGate("")

		Convey("Then login and verification are unavailable", func() {
			_, err := g.Authenticate("anything")
			So(errors.Is(err, auth.ErrNotConfigured), ShouldBeTrue)
			So(errors.Is(g.Verify("anything"), auth.ErrNotConfigured), ShouldBeTrue)
			So(g.Configured(), ShouldBeFalse)
		})
	})

	Convey("Given a gate with a secret", t, func() {
		g := auth.NewGate("s3cret", auth.WithTTL(time.Hour))

		Convey("When the wrong secret is supplied", func() {
			_, err := g.Authenticate("nope")
			So(errors.Is(err, auth.ErrUnauthorized), ShouldBeTrue)
		})

		Convey("When the right secret is supplied", func() {
			tok, err := g.Authenticate("s3cret")
			So(err, ShouldBeNil)

			Convey("Then a signed token distinct from the secret is issued", func() {
				So(tok.Value, ShouldNotEqual, "s3cret")
				So(strings.Count(tok.Value, "."), ShouldEqual, 2)
				So(tok.ExpiresAt, ShouldHappenAfter, time.Now().Add(59*time.Minute))
			})

			Convey("Then the token verifies", func() {
				So(g.Verify(tok.Value), ShouldBeNil)
			})

			Convey("Then a different gate rejects it", func() {
				other := auth.NewGate("other-secret")
				So(errors.Is(other.Verify(tok.Value), auth.ErrUnauthorized), ShouldBeTrue)
			})

			Convey("Then a tampered token is rejected", func() {
				So(errors.Is(g.Verify(tok.Value+"x"), auth.ErrUnauthorized), ShouldBeTrue)
			})
		})

		Convey("When the raw secret is presented", func() {
			So(g.Verify("s3cret"), ShouldBeNil)
		})

		Convey("When nothing or garbage is presented", func() {
			So(errors.Is(g.Verify(""), auth.ErrUnauthorized), ShouldBeTrue)
			So(errors.Is(g.Verify("not-a-token"), auth.ErrUnauthorized), ShouldBeTrue)
		})

		Convey("When a token has expired", func() {
			past := auth.NewGate("s3cret", auth.WithTTL(time.Minute), auth.WithClock(func() time.Time {
				return time.Now().Add(-time.Hour)
			}))
			tok, err := past.Authenticate("s3cret")
			So(err, ShouldBeNil)
			So(errors.Is(g.Verify(tok.Value), auth.ErrUnauthorized), ShouldBeTrue)
		})

		Convey("When a token for another subject is signed with the secret", func() {
			claims := jwt.RegisteredClaims{
				Issuer:    "skillhub",
				Subject:   "visitor",
				ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
			}
			signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("s3cret"))
			So(err, ShouldBeNil)
			So(errors.Is(g.Verify(signed), auth.ErrUnauthorized), ShouldBeTrue)
		})
	})
}
