// SPDX-License-Identifier: GPL-3.0-or-later

package chanio_test

import (
	"fmt"

	"github.com/bassosimone/chanio"
	"github.com/bassosimone/runtimex"
)

// This example shows how to encode data by writing it through a base64
// filter chained over in-memory storage.
func ExampleNewBase64() {
	// Create the in-memory storage channel.
	mem := runtimex.PanicOnError1(chanio.New(chanio.MemMethod()))

	// Create the base64 filter, configured to emit a single line,
	// and chain it over the storage. The filter now owns the storage
	// channel and releases it when freed.
	b64 := runtimex.PanicOnError1(chanio.NewBase64())
	b64.SetFlags(chanio.FlagBase64NoNewline)
	b64.Push(mem)
	defer b64.Free()

	// Write the cleartext and flush to trigger the encoding.
	runtimex.PanicOnError1(b64.WriteAll([]byte("hello world")))
	runtimex.Assert(b64.Flush() == nil)

	// Snapshot the encoded bytes from the storage channel.
	data := runtimex.PanicOnError1(chanio.MemContents(mem))
	fmt.Printf("%s\n", string(data))

	// Output: aGVsbG8gd29ybGQ=
}
