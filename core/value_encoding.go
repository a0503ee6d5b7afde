package core

import (
	"errors"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

var (
	nativeEncMode cbor.EncMode
	nativeDecMode cbor.DecMode
)

func init() {
	var err error
	nativeEncMode, err = cbor.CoreDetEncOptions().EncMode()
	if err != nil {
		panic(err)
	}
	nativeDecMode, err = cbor.DecOptions{
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
	}.DecMode()
	if err != nil {
		panic(err)
	}
}

func encodeNativeValue(value any) ([]byte, error) {
	return nativeEncMode.Marshal(value)
}

// decodeNativeValue decodes raw into out. A stored value whose shape cannot
// be represented by out reports mismatch instead of an error.
func decodeNativeValue(raw []byte, out any) (mismatch bool, err error) {
	err = nativeDecMode.Unmarshal(raw, out)
	if err == nil {
		return false, nil
	}
	var typeErr *cbor.UnmarshalTypeError
	if errors.As(err, &typeErr) {
		return true, nil
	}
	return false, err
}

func isNilValue(value any) bool {
	if value == nil {
		return true
	}
	rv := reflect.ValueOf(value)
	switch rv.Kind() {
	case reflect.Map, reflect.Slice, reflect.Pointer, reflect.Interface, reflect.Func, reflect.Chan:
		return rv.IsNil()
	}
	return false
}
