package cryptox

import (
	"bytes"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mvoronin/parceltrack/internal/common"
)

func testKey(b byte) []byte {
	k := make([]byte, KeySize)
	for i := range k {
		k[i] = b
	}
	return k
}

func TestNew_KeyLength(t *testing.T) {
	_, err := New(testKey(1))
	require.NoError(t, err)

	for _, n := range []int{0, 16, 24, 31, 33, 64} {
		_, err := New(make([]byte, n))
		assert.ErrorIs(t, err, common.ErrCrypto, "key length %d must be rejected", n)
	}
}

func TestEncryptDecrypt_RoundTrip(t *testing.T) {
	c, err := New(testKey(1))
	require.NoError(t, err)

	cases := [][]byte{
		[]byte("hello"),
		{},
		bytes.Repeat([]byte{0xff}, 4096),
		[]byte(`{"name":"Jane Doe","phone":"555-1234"}`),
	}

	for _, plaintext := range cases {
		blob, err := c.Encrypt(plaintext)
		require.NoError(t, err)
		require.GreaterOrEqual(t, len(blob), NonceSize)

		got, err := c.Decrypt(blob)
		require.NoError(t, err)
		assert.Equal(t, plaintext, got)
	}
}

func TestEncrypt_FreshNonce(t *testing.T) {
	c, err := New(testKey(1))
	require.NoError(t, err)

	b1, err := c.Encrypt([]byte("same"))
	require.NoError(t, err)
	b2, err := c.Encrypt([]byte("same"))
	require.NoError(t, err)

	assert.NotEqual(t, b1[:NonceSize], b2[:NonceSize], "nonces must not repeat")
	assert.NotEqual(t, b1, b2, "identical plaintexts must not produce identical blobs")
}

func TestDecrypt_TamperDetection(t *testing.T) {
	c, err := New(testKey(1))
	require.NoError(t, err)

	blob, err := c.Encrypt([]byte("tamper me"))
	require.NoError(t, err)

	// Flip one bit at every position: nonce, ciphertext and tag alike
	// must all be covered.
	for i := range blob {
		corrupted := append([]byte(nil), blob...)
		corrupted[i] ^= 0x01
		_, err := c.Decrypt(corrupted)
		assert.ErrorIs(t, err, common.ErrCrypto, "bit flip at byte %d must be detected", i)
	}
}

func TestDecrypt_WrongKey(t *testing.T) {
	c1, err := New(testKey(1))
	require.NoError(t, err)
	c2, err := New(testKey(2))
	require.NoError(t, err)

	blob, err := c1.Encrypt([]byte("secret"))
	require.NoError(t, err)

	_, err = c2.Decrypt(blob)
	assert.ErrorIs(t, err, common.ErrCrypto)
}

func TestDecrypt_Malformed(t *testing.T) {
	c, err := New(testKey(1))
	require.NoError(t, err)

	for _, blob := range [][]byte{nil, {}, make([]byte, NonceSize-1), make([]byte, NonceSize)} {
		_, err := c.Decrypt(blob)
		if !errors.Is(err, common.ErrCrypto) {
			t.Fatalf("blob of %d bytes: want ErrCrypto, got %v", len(blob), err)
		}
	}
}

func TestJSONRoundTrip(t *testing.T) {
	c, err := New(testKey(7))
	require.NoError(t, err)

	type payload struct {
		Name    string `json:"name"`
		Phone   string `json:"phone"`
		Address string `json:"address"`
	}

	in := payload{Name: "Jane Doe", Phone: "555-1234", Address: "1 Main St"}
	blob, err := c.EncryptJSON(in)
	require.NoError(t, err)

	var out payload
	require.NoError(t, c.DecryptJSON(blob, &out))
	assert.Equal(t, in, out)

	// A valid blob whose plaintext is not JSON still fails typed.
	raw, err := c.Encrypt([]byte("not json"))
	require.NoError(t, err)
	assert.ErrorIs(t, c.DecryptJSON(raw, &out), common.ErrCrypto)
}
