package def_test

import (
	"fmt"

	"badc0de.net/pkg/go-heroes3/def"
	"badc0de.net/pkg/go-heroes3/ttesting"
)

func ExampleDecode() {
	b := ttesting.NewDEFBuilder(0x43, 32, 32).AddGroup(0, ttesting.DEFFrame{
		Name: "AvWTest0.pcx", FullWidth: 32, FullHeight: 32, Width: 4, Height: 2, X: 3, Y: 5,
		Compression: uint32(def.CompressionRLE), Pixels: []byte{0, 0, 9, 9, 1, 1, 1, 1},
	}).Bytes()

	s, err := def.Decode(b)
	if err != nil {
		panic(err)
	}
	f := s.Groups[0].Frames[0]
	fmt.Println(f)
	fmt.Println(f.Pixels)
	// Output:
	// AvWTest0.pcx 4x2@(3,5)/32x32
	// [0 0 9 9 1 1 1 1]
}
