package format

// Tag is the one-character type marker that precedes every encoded value.
type Tag byte

const (
	TagStringShort Tag = 's' // string, length as a single digit
	TagStringLong  Tag = 'S' // string, length as a numeral
	TagZero        Tag = '0' // the number zero, no payload
	TagIntPos      Tag = 'i' // positive integer below Base, single digit
	TagIntNeg      Tag = 'j' // negative integer above -Base, single digit magnitude
	TagIntPosLarge Tag = 'I' // positive integer, numeral
	TagIntNegLarge Tag = 'J' // negative integer, numeral magnitude
	TagFalse       Tag = 'f'
	TagTrue        Tag = 't'
	TagNull        Tag = 'n'
	TagUndefined   Tag = 'u'
	TagFloat       Tag = 'd' // non-integer number as length-prefixed text
	TagRegExp      Tag = 'r'
	TagDate        Tag = 'D'
	TagBackRef     Tag = '@'
	TagRecordShort Tag = 'o'
	TagRecordLong  Tag = 'O'
	TagListShort   Tag = 'a'
	TagListLong    Tag = 'A'
	TagSetShort    Tag = 'e'
	TagSetLong     Tag = 'E'
	TagMapShort    Tag = 'm'
	TagMapLong     Tag = 'M'
	TagBuffer      Tag = 'b'

	TagInt8         Tag = '1'
	TagUint8        Tag = '2'
	TagUint8Clamped Tag = '3'
	TagInt16        Tag = '4'
	TagUint16       Tag = '5'
	TagInt32        Tag = '6'
	TagUint32       Tag = '7'
	TagFloat32      Tag = '8'
	TagFloat64      Tag = '9'
	TagBigInt64     Tag = 'x'
	TagBigUint64    Tag = 'y'
	TagDataView     Tag = 'v'
)

var tagNames = map[Tag]string{
	TagStringShort:  "StringShort",
	TagStringLong:   "StringLong",
	TagZero:         "Zero",
	TagIntPos:       "IntPos",
	TagIntNeg:       "IntNeg",
	TagIntPosLarge:  "IntPosLarge",
	TagIntNegLarge:  "IntNegLarge",
	TagFalse:        "False",
	TagTrue:         "True",
	TagNull:         "Null",
	TagUndefined:    "Undefined",
	TagFloat:        "Float",
	TagRegExp:       "RegExp",
	TagDate:         "Date",
	TagBackRef:      "BackRef",
	TagRecordShort:  "RecordShort",
	TagRecordLong:   "RecordLong",
	TagListShort:    "ListShort",
	TagListLong:     "ListLong",
	TagSetShort:     "SetShort",
	TagSetLong:      "SetLong",
	TagMapShort:     "MapShort",
	TagMapLong:      "MapLong",
	TagBuffer:       "Buffer",
	TagInt8:         "Int8",
	TagUint8:        "Uint8",
	TagUint8Clamped: "Uint8Clamped",
	TagInt16:        "Int16",
	TagUint16:       "Uint16",
	TagInt32:        "Int32",
	TagUint32:       "Uint32",
	TagFloat32:      "Float32",
	TagFloat64:      "Float64",
	TagBigInt64:     "BigInt64",
	TagBigUint64:    "BigUint64",
	TagDataView:     "DataView",
}

// Valid reports whether t is a known tag.
func (t Tag) Valid() bool {
	_, ok := tagNames[t]
	return ok
}

func (t Tag) String() string {
	if name, ok := tagNames[t]; ok {
		return name
	}

	return "Unknown"
}
