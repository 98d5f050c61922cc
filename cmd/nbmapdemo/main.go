// Command nbmapdemo is a small, single-process demonstration of the
// nbmap API, adapted from the teacher package's own cmd/main.go.
package main

import (
	"fmt"

	"github.com/go-nbmap/nbmap"
	"github.com/go-nbmap/nbmap/internal/keys"
)

func main() {
	m := nbmap.New(keys.HashString, keys.EqualsString, keys.DestroyString)

	hello := keys.NewString("hello")
	valA := keys.NewString("A")
	valB := keys.NewString("B")

	fmt.Println("put:", m.PutIf(hello, valA, nbmap.Ignore))
	fmt.Println("get:", *(*keys.String)(m.Get(keys.NewString("hello"))))

	fmt.Println("cas update, old value was:", *(*keys.String)(m.PutIf(keys.NewString("hello"), valB, valA)))
	fmt.Println("get:", *(*keys.String)(m.Get(keys.NewString("hello"))))

	fmt.Println("delete:", *(*keys.String)(m.Delete(keys.NewString("hello"))))
	fmt.Println("size after delete:", m.Size())

	m.Free()
}
