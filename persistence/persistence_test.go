package persistence

import (
	"bytes"
	"context"
	"encoding/binary"
	"testing"

	"github.com/hupe1980/iswrec/blobstore"
	"github.com/hupe1980/iswrec/codec"
	"github.com/hupe1980/iswrec/glm"
	"github.com/hupe1980/iswrec/resource"
	"github.com/hupe1980/iswrec/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStore_EncodeDecode(t *testing.T) {
	rng := testutil.NewRNG(7)
	st := rng.GaussianStore(8, 3, glm.IDs("gal_bin0", "gal_bin1"))
	st.RunTag = "run42"
	st.FileTags = []string{"iswREC"}

	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		t.Run(c.String(), func(t *testing.T) {
			var buf bytes.Buffer
			require.NoError(t, EncodeStore(&buf, st, WithCompression(c), WithBlockSize(256)))

			h, err := ReadHeader(buf.Bytes())
			require.NoError(t, err)
			assert.Equal(t, KindCoefficients, h.Kind)
			assert.Equal(t, c, h.Compression)
			assert.Equal(t, codec.Default.Name(), h.Codec)

			got, err := DecodeStore(buf.Bytes())
			require.NoError(t, err)
			assert.Equal(t, st.Lmax, got.Lmax)
			assert.Equal(t, st.Realizations, got.Realizations)
			assert.Equal(t, st.Maps, got.Maps)
			assert.Equal(t, "run42", got.RunTag)
			assert.Equal(t, []string{"iswREC"}, got.FileTags)
			assert.Equal(t, st.Data(), got.Data())
		})
	}
}

func TestCompression_ShrinksRepetitivePayload(t *testing.T) {
	st := testutil.ConstantStore(32, 4, glm.IDs("a"), complex(1, -1))

	var raw, packed bytes.Buffer
	require.NoError(t, EncodeStore(&raw, st))
	require.NoError(t, EncodeStore(&packed, st, WithCompression(CompressionZSTD)))
	assert.Less(t, packed.Len(), raw.Len()/4)

	got, err := DecodeStore(packed.Bytes())
	require.NoError(t, err)
	assert.Equal(t, st.Data(), got.Data())
}

func TestDataset_EncodeDecode(t *testing.T) {
	ds := testutil.ClosedFormDataset(6)

	var buf bytes.Buffer
	require.NoError(t, EncodeDataset(&buf, ds, WithCodec(codec.JSON{}), WithCompression(CompressionLZ4)))

	h, err := ReadHeader(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, "json", h.Codec)

	got, err := DecodeDataset(buf.Bytes())
	require.NoError(t, err)
	assert.Equal(t, ds.Tags(), got.Tags())
	assert.Equal(t, ds.NEll(), got.NEll())
	assert.Equal(t, ds.Flat(), got.Flat())
}

func TestDecode_Errors(t *testing.T) {
	ds := testutil.ClosedFormDataset(4)
	var buf bytes.Buffer
	require.NoError(t, EncodeDataset(&buf, ds))
	valid := buf.Bytes()

	t.Run("magic", func(t *testing.T) {
		_, err := DecodeDataset([]byte("not an isw file at all"))
		assert.ErrorIs(t, err, ErrInvalidMagic)

		_, err = DecodeDataset(nil)
		assert.ErrorIs(t, err, ErrInvalidMagic)
	})

	t.Run("version", func(t *testing.T) {
		data := bytes.Clone(valid)
		binary.LittleEndian.PutUint16(data[4:], 99)
		_, err := DecodeDataset(data)
		assert.ErrorIs(t, err, ErrInvalidVersion)
	})

	t.Run("kind", func(t *testing.T) {
		_, err := DecodeStore(valid)
		assert.ErrorIs(t, err, ErrInvalidKind)
	})

	t.Run("checksum", func(t *testing.T) {
		data := bytes.Clone(valid)
		data[len(data)-10] ^= 0xff
		_, err := DecodeDataset(data)
		require.Error(t, err)
		assert.True(t, IsChecksumMismatch(err))
		assert.ErrorIs(t, err, ErrCorrupt)
	})

	t.Run("truncated", func(t *testing.T) {
		_, err := DecodeDataset(valid[:20])
		assert.ErrorIs(t, err, ErrCorrupt)
	})
}

func TestManager_SaveLoad(t *testing.T) {
	ctx := context.Background()

	for name, store := range map[string]blobstore.BlobStore{
		"memory": blobstore.NewMemoryStore(),
		"local":  blobstore.NewLocalStore(t.TempDir()),
	} {
		t.Run(name, func(t *testing.T) {
			m := NewManager(store, ManagerOptions{
				Compression: CompressionZSTD,
				Resources:   resource.NewController(resource.Config{IOLimitBytesPerSec: 1 << 30}),
			})

			ds := testutil.ClosedFormDataset(5)
			dsName, err := m.SaveDataset(ctx, "fiducial", ds)
			require.NoError(t, err)
			assert.Equal(t, "cl/fiducial.isw", dsName)

			gotDS, err := m.LoadDataset(ctx, "fiducial")
			require.NoError(t, err)
			assert.Equal(t, ds.Flat(), gotDS.Flat())

			st := testutil.NewRNG(3).GaussianStore(4, 2, glm.IDs("iswREC.testmap"))
			st.FileTags = []string{"iswREC"}
			st.RunTag = "abc"
			stName, err := m.SaveStore(ctx, st)
			require.NoError(t, err)
			assert.Equal(t, "glm/iswREC.abc.isw", stName)

			gotST, err := m.LoadStore(ctx, stName)
			require.NoError(t, err)
			assert.Equal(t, st.Data(), gotST.Data())

			stores, err := m.ListStores(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"glm/iswREC.abc.isw"}, stores)

			datasets, err := m.ListDatasets(ctx)
			require.NoError(t, err)
			assert.Equal(t, []string{"cl/fiducial.isw"}, datasets)

			_, err = m.LoadStore(ctx, "glm/missing.isw")
			assert.ErrorIs(t, err, blobstore.ErrNotFound)
		})
	}
}

func TestStoreName(t *testing.T) {
	st := testutil.ConstantStore(2, 1, glm.IDs("a", "b"), 0)
	assert.Equal(t, "glm/a_b.isw", StoreName(st))

	st.FileTags = []string{"iswREC.testmap.fid"}
	st.RunTag = "r1"
	assert.Equal(t, "glm/iswREC.testmap.fid.r1.isw", StoreName(st))
}

func TestParseCompression(t *testing.T) {
	for _, c := range []Compression{CompressionNone, CompressionLZ4, CompressionZSTD} {
		got, err := ParseCompression(c.String())
		require.NoError(t, err)
		assert.Equal(t, c, got)
	}
	_, err := ParseCompression("gzip")
	assert.Error(t, err)
}
