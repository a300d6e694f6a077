package storage_test

import (
	"context"
	"testing"

	storage "github.com/okian/verdict/internal/adapters/storage"
	. "github.com/smartystreets/goconvey/convey"
)

func TestMemoryStore(t *testing.T) {
	Convey("Given an in-memory blob store", t, func() {
		ctx := context.Background()
		store := storage.NewMemoryStore()

		Convey("When uploading a blob", func() {
			url, err := store.Upload(ctx, []byte("solution bytes"), "submissions/contest-1", "sub-1.pdf")

			Convey("Then a retrievable URL comes back", func() {
				So(err, ShouldBeNil)
				So(url, ShouldEqual, "mem://submissions/contest-1/sub-1.pdf")

				data, ok := store.Get(url)
				So(ok, ShouldBeTrue)
				So(string(data), ShouldEqual, "solution bytes")
			})

			Convey("And mutating the caller's slice does not touch the blob", func() {
				payload := []byte("original")
				url2, err := store.Upload(ctx, payload, "f", "n")
				So(err, ShouldBeNil)
				payload[0] = 'X'
				data, _ := store.Get(url2)
				So(string(data), ShouldEqual, "original")
			})

			Convey("And deleting it succeeds once", func() {
				ok, err := store.Delete(ctx, url)
				So(err, ShouldBeNil)
				So(ok, ShouldBeTrue)

				ok, err = store.Delete(ctx, url)
				So(err, ShouldBeNil)
				So(ok, ShouldBeFalse)
			})
		})

		Convey("When deleting an unknown URL", func() {
			ok, err := store.Delete(ctx, "mem://nowhere/nothing")
			So(err, ShouldBeNil)
			So(ok, ShouldBeFalse)
		})
	})
}
