package normalize

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sahilchouksey/gaokao-ingest/model"
)

func mustParse(t *testing.T, s string) Document {
	t.Helper()
	doc, err := ParseDocument([]byte(s))
	require.NoError(t, err)
	return doc
}

func TestFlatten_GroupHistoryExample(t *testing.T) {
	doc := mustParse(t, `{"result":{"records":[{"yxdh":"1101","yxmc":"Sample University","yxNfZyzVoList":[{"zyzdm":"01","zyzbh":"01"},{"zyzdm":"01","zyzbh":"02"}]}]}}`)

	records, err := doc.Records()
	require.NoError(t, err)

	rows := Flatten(records, model.Nested(model.FieldGroupList, model.FieldYearList), nil)
	require.Len(t, rows, 2)

	for i, row := range rows {
		assert.Equal(t, "1101", row["yxdh"])
		assert.Equal(t, "Sample University", row["yxmc"])
		assert.Equal(t, "01", row["zyzdm"])
		assert.NotContains(t, row, "yxNfZyzVoList", "row %d carries the nested list", i)
	}
	assert.Equal(t, "01", rows[0]["zyzbh"])
	assert.Equal(t, "02", rows[1]["zyzbh"])
}

func TestFlatten_RowCountMatchesChildren(t *testing.T) {
	layout := model.Nested(model.FieldGroupList, model.FieldYearList)
	parent := Record{"yxdh": "2201", "yxmc": "A", "sf985": "1", "yxnfList": []any{"2023", "2024"}}

	for _, n := range []int{0, 1, 5} {
		children := make([]any, 0, n)
		for i := 0; i < n; i++ {
			children = append(children, map[string]any{"zyzbh": json.Number(string(rune('0' + i)))})
		}
		rec := Merge(parent, Record{"yxNfZyzVoList": children}, nil)

		rows := Flatten([]Record{rec}, layout, nil)
		require.Len(t, rows, n)
		for _, row := range rows {
			assert.Equal(t, "2201", row["yxdh"])
			assert.Equal(t, "A", row["yxmc"])
			assert.Equal(t, "1", row["sf985"])
			assert.NotContains(t, row, "yxnfList")
			assert.Contains(t, row, "zyzbh")
		}
	}
}

func TestFlatten_MissingListYieldsNoRows(t *testing.T) {
	rows := Flatten([]Record{{"yxdh": "1"}}, model.Nested(model.FieldGroupList), nil)
	assert.Empty(t, rows)
}

func TestFlatten_FlatLayoutUsesBaseAsParent(t *testing.T) {
	base := Record{"nf": "2024", "yxmc": "Sample University", "zyzdm": "01", "zyzbh": "105"}
	records := []Record{
		{"zymc": "Physics", "pjf": json.Number("612")},
		{"zymc": "Chemistry", "pjf": json.Number("605"), "zyzbh": "106"},
	}

	rows := Flatten(records, model.Layout{}, base)
	require.Len(t, rows, 2)
	assert.Equal(t, "2024", rows[0]["nf"])
	assert.Equal(t, "Physics", rows[0]["zymc"])
	assert.Equal(t, "106", rows[1]["zyzbh"], "child value wins over parent")
	assert.Equal(t, "105", base["zyzbh"], "base is not mutated")
}

func TestMerge_ExcludedAndPrecedence(t *testing.T) {
	parent := Record{"a": 1, "b": 2, "yxNfZyzVoList": []any{}}
	child := Record{"b": 3, "c": 4}

	out := Merge(parent, child, NewFieldSet(model.FieldGroupList))
	assert.Equal(t, Record{"a": 1, "b": 3, "c": 4}, out)
	assert.Len(t, parent, 3)
}

func TestDocument_Shapes(t *testing.T) {
	cases := map[string]struct {
		body string
		want int
	}{
		"result records": {`{"result":{"records":[{"a":1},{"a":2}]}}`, 2},
		"data list":      {`{"data":[{"a":1}]}`, 1},
		"data item":      {`{"data":{"item":[{"a":1},{"a":2},{"a":3}]}}`, 3},
		"data object":    {`{"data":{"school_id":"31"}}`, 1},
		"empty records":  {`{"result":{"records":[]}}`, 0},
		"null data":      {`{"data":null}`, 0},
	}
	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			records, err := mustParse(t, tc.body).Records()
			require.NoError(t, err)
			assert.Len(t, records, tc.want)
		})
	}

	_, err := mustParse(t, `{"code":"0000"}`).Records()
	assert.ErrorIs(t, err, ErrUnknownShape)

	_, err = ParseDocument([]byte(`[1,2]`))
	assert.Error(t, err)
}

func TestDecode_PermissiveCoercion(t *testing.T) {
	rec := Record{
		"yxdm":  json.Number("10532"),
		"yxdh":  "1101",
		"yxmc":  "Sample University",
		"sf985": "1",
		"sf211": "maybe",
		"sfsyl": true,
		"jhrs":  "120",
		"zysl":  "n/a",
		"zyzsl": json.Number("7.0"),
		"extra": "ignored",
	}

	var inst model.Institution
	require.NoError(t, Decode(rec, &inst))

	assert.Equal(t, "10532", inst.InstitutionCode)
	assert.Equal(t, "1101", inst.RegistryCode)
	require.NotNil(t, inst.Is985)
	assert.True(t, *inst.Is985)
	assert.Nil(t, inst.Is211, "unparsable flag becomes null")
	require.NotNil(t, inst.DoubleFirst)
	assert.Equal(t, "true", *inst.DoubleFirst)
	require.NotNil(t, inst.PlanSize)
	assert.Equal(t, 120, *inst.PlanSize)
	assert.Nil(t, inst.ProgramCount, "unparsable number becomes null")
	require.NotNil(t, inst.GroupCount)
	assert.Equal(t, 7, *inst.GroupCount)
	assert.Nil(t, inst.CityCode, "absent field stays null")
}

func TestDecode_RejectsNonStructTarget(t *testing.T) {
	var n int
	assert.Error(t, Decode(Record{}, &n))
	assert.Error(t, Decode(Record{}, model.Institution{}))
}

func TestAsBool(t *testing.T) {
	for _, v := range []any{true, "1", "true", "是", "Y", json.Number("1")} {
		b, ok := AsBool(v)
		assert.True(t, ok, "%v", v)
		assert.True(t, b, "%v", v)
	}
	for _, v := range []any{false, "0", "否", "N", json.Number("0")} {
		b, ok := AsBool(v)
		assert.True(t, ok, "%v", v)
		assert.False(t, b, "%v", v)
	}
	for _, v := range []any{nil, "", "unknown", json.Number("2"), []any{}} {
		_, ok := AsBool(v)
		assert.False(t, ok, "%v", v)
	}
}

func TestDetailFromDocument(t *testing.T) {
	doc := mustParse(t, `{"data":{
		"school_id":"31","name":"Sample University","f985":"1","area":"3550.5",
		"rank":{"ruanke":{"rank":"8"}},"remark":null,
		"master_arr":[{"name":"Physics","num":"3"},{"name":"Math"}],
		"doctor_arr":[{"name":"Physics","num":"1"}],
		"subject_arr":[{"name":"Optics"},{"nameless":true},"junk"],
		"special":[{"id":"901","special_name":"Photonics","is_video":"1"}]
	}}`)

	detail, children, err := DetailFromDocument(doc)
	require.NoError(t, err)

	assert.Equal(t, "31", detail.SchoolID)
	assert.Equal(t, "Sample University", detail.Name)
	require.NotNil(t, detail.Area)
	assert.Equal(t, 3550, *detail.Area)
	assert.JSONEq(t, `{"ruanke":{"rank":"8"}}`, string(detail.Rank))
	assert.Nil(t, detail.Remark)

	require.Len(t, children.MasterDegrees, 2)
	assert.Nil(t, children.MasterDegrees[1].Num)
	require.Len(t, children.DoctorateDegrees, 1)
	require.Len(t, children.Subjects, 1)
	require.Len(t, children.Specialties, 1)
	assert.Equal(t, "901", *children.Specialties[0].SpecialtyID)
	assert.Equal(t, 5, children.Len())

	for _, m := range children.MasterDegrees {
		assert.Equal(t, "31", m.SchoolID)
	}
	assert.Equal(t, "31", children.Specialties[0].SchoolID)
}

func TestDetailFromDocument_RequiresSchoolID(t *testing.T) {
	_, _, err := DetailFromDocument(mustParse(t, `{"data":{"name":"x"}}`))
	assert.ErrorIs(t, err, ErrMissingSchoolID)

	_, _, err = DetailFromDocument(mustParse(t, `{"result":{"records":[]}}`))
	assert.ErrorIs(t, err, ErrUnknownShape)
}
