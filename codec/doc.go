// Package codec converts function results into cache file contents and back.
//
// # Overview
//
// Values are first encoded into a tagged tree of plain maps, lists and
// scalars, then written as JSON (the default) or MessagePack. Rich values
// are recorded as small maps with a "type" tag so they can be rebuilt on
// read:
//
//	{"type": "numpy.ndarray", "data_type": "float64", "data": [1.0, null, 3.0]}
//	{"type": "datetime.datetime", "data": "2020-05-17T08:30:00.000000Z"}
//	{"type": "datetime.date", "data": "2020-05-17"}
//	{"type": "pandas.DataFrame", "data": {"columns": [...], "index": [...], "dtypes": [...], "data": [[...]]}}
//
// The tag names and date layouts are part of the on-disk format; entries
// written by other producers of the same format decode here unchanged.
//
// # Basic Usage
//
//	c := codec.Default
//	data, err := c.Marshal(codec.MustArray([]float64{1, math.NaN(), 3}))
//	...
//	var out *codec.Array
//	err = c.UnmarshalInto(data, &out)
//
// # Lossy Cases
//
// A few values do not survive a round trip:
//
//   - time.Duration is written as the date reached from 0001-01-01 and reads
//     back as that string.
//   - NaN and infinities are written as null. Float arrays read null back as
//     NaN; everywhere else it reads back as nil.
//   - Frames with repeated column names or index labels are written as a bare
//     row matrix.
//   - Datetimes are normalized to UTC with microsecond precision.
//
// # Errors
//
// Values the codec cannot represent fail with an error for which
// IsSerialization reports true. Unreadable input fails with IsDecode.
package codec
