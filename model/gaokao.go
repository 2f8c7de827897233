package model

import (
	"time"
)

// Namespace is the logical schema every gaokao table is created under.
const Namespace = "gaokao"

// Audit carries the timestamps shared by every gaokao table.
// CreatedAt is written once on insert; UpdatedAt on every mutation.
type Audit struct {
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

// Institution is one school from the provincial registry listing.
type Institution struct {
	KeyID uint `gorm:"column:key_id;primaryKey;autoIncrement" json:"-"`

	// Natural key
	InstitutionCode string `gorm:"column:yxdm;type:varchar(20);not null;uniqueIndex:uq_institution_natural_key,priority:1" json:"yxdm"`
	RegistryCode    string `gorm:"column:yxdh;type:varchar(20);not null;uniqueIndex:uq_institution_natural_key,priority:2" json:"yxdh"`
	Name            string `gorm:"column:yxmc;type:varchar(100);not null;uniqueIndex:uq_institution_natural_key,priority:3" json:"yxmc" validate:"required"`

	Is985        *bool   `gorm:"column:sf985" json:"sf985"`
	Is211        *bool   `gorm:"column:sf211" json:"sf211"`
	DoubleFirst  *string `gorm:"column:sfsyl;type:varchar(50)" json:"sfsyl"`
	IsPublic     *string `gorm:"column:sfgb;type:varchar(10)" json:"sfgb"`
	ProvinceCode *string `gorm:"column:ssdm;type:varchar(50)" json:"ssdm"`
	CityCode     *string `gorm:"column:djsdm;type:varchar(50)" json:"djsdm"`
	Homepage     *string `gorm:"column:zydz;type:varchar(255)" json:"zydz"`
	PlanSize     *int    `gorm:"column:jhrs" json:"jhrs"`
	ProgramCount *int    `gorm:"column:zysl" json:"zysl"`
	GroupCount   *int    `gorm:"column:zyzsl" json:"zyzsl"`

	Audit
}

// ProgramGroup is an admissions grouping of programs sharing one cutoff.
// Tier flags are copied from the owning institution.
type ProgramGroup struct {
	KeyID uint `gorm:"column:key_id;primaryKey;autoIncrement" json:"-"`

	// Natural key
	GroupCode    string `gorm:"column:zyzdm;type:varchar(20);not null;uniqueIndex:uq_program_group_natural_key,priority:1" json:"zyzdm" validate:"required"`
	RegistryCode string `gorm:"column:yxdh;type:varchar(20);not null;uniqueIndex:uq_program_group_natural_key,priority:2;index" json:"yxdh" validate:"required"`
	GroupSeq     string `gorm:"column:zyzbh;type:varchar(20);not null;uniqueIndex:uq_program_group_natural_key,priority:3" json:"zyzbh"`

	GroupName          *string `gorm:"column:zyzmc;type:varchar(100)" json:"zyzmc"`
	InstitutionCode    *string `gorm:"column:yxdm;type:varchar(20)" json:"yxdm"`
	InstitutionName    *string `gorm:"column:yxmc;type:varchar(100)" json:"yxmc"`
	Is985              *bool   `gorm:"column:sf985" json:"sf985"`
	Is211              *bool   `gorm:"column:sf211" json:"sf211"`
	IsDoubleFirst      *bool   `gorm:"column:sfsyl" json:"sfsyl"`
	IsPublic           *bool   `gorm:"column:sfgb" json:"sfgb"`
	ProgramCount       *int    `gorm:"column:zysl" json:"zysl"`
	PlanSize           *int    `gorm:"column:jhrs" json:"jhrs"`
	FillRoundCode      *string `gorm:"column:tbrcdm;type:varchar(20)" json:"tbrcdm"`
	CityCode           *string `gorm:"column:djsdm;type:varchar(20)" json:"djsdm"`
	BatchCode          *string `gorm:"column:pcdm;type:varchar(20)" json:"pcdm"`
	Homepage           *string `gorm:"column:zydz;type:varchar(255)" json:"zydz"`
	PlanCategoryCode   *string `gorm:"column:jhlbdm;type:varchar(20)" json:"jhlbdm"`
	IsArts             *bool   `gorm:"column:sfysc" json:"sfysc"`
	IsSpecialPolicy    *bool   `gorm:"column:sfyjtjzycgk" json:"sfyjtjzycgk"`
	SubjectCategory    *string `gorm:"column:kldm;type:varchar(20)" json:"kldm"`
	PlanNatureCode     *string `gorm:"column:jhxzdm;type:varchar(20)" json:"jhxzdm"`
	SubjectRequirement *string `gorm:"column:kskmyq;type:varchar(100)" json:"kskmyq"`
	ProvinceCode       *string `gorm:"column:ssdm;type:varchar(20)" json:"ssdm"`

	Audit
}

// Program is a degree program nested under a ProgramGroup.
type Program struct {
	KeyID uint `gorm:"column:key_id;primaryKey;autoIncrement" json:"-"`

	// Natural key
	RegistryCode string `gorm:"column:yxdh;type:varchar(20);not null;uniqueIndex:uq_program_natural_key,priority:1" json:"yxdh" validate:"required"`
	GroupCode    string `gorm:"column:zyzdm;type:varchar(50);not null;uniqueIndex:uq_program_natural_key,priority:2" json:"zyzdm" validate:"required"`
	ProgramCode  string `gorm:"column:zydm;type:varchar(20);not null;uniqueIndex:uq_program_natural_key,priority:3" json:"zydm"`
	ProgramSeq   string `gorm:"column:zydh;type:varchar(20);not null;uniqueIndex:uq_program_natural_key,priority:4" json:"zydh"`

	Name               *string `gorm:"column:zymc;type:varchar(100)" json:"zymc"`
	InstitutionCode    *string `gorm:"column:yxdm;type:varchar(20)" json:"yxdm"`
	PlanSize           *int    `gorm:"column:jhrs" json:"jhrs"`
	DurationCode       *string `gorm:"column:xzdm;type:varchar(10)" json:"xzdm"`
	SortOrder          *string `gorm:"column:zyxh;type:varchar(50)" json:"zyxh"`
	Campus             *string `gorm:"column:bxdd;type:varchar(100)" json:"bxdd"`
	CampusFlag         *bool   `gorm:"column:bxddbb" json:"bxddbb"`
	Remarks            *string `gorm:"column:bz;type:text" json:"bz"`
	OralExam           *bool   `gorm:"column:sfks" json:"sfks"`
	SkkmRequirement    *string `gorm:"column:skkmyq;type:varchar(50)" json:"skkmyq"`
	SubjectRequirement *string `gorm:"column:kskmyq;type:varchar(100)" json:"kskmyq"`
	LanguageCode       *string `gorm:"column:wyyzdm;type:varchar(50)" json:"wyyzdm"`
	TuitionNote        *string `gorm:"column:sfbz;type:varchar(50)" json:"sfbz"`

	Audit
}

// HistoricalProgramGroupScore is a year-stamped admission outcome for a
// program group. Rows are append-only.
type HistoricalProgramGroupScore struct {
	KeyID uint `gorm:"column:key_id;primaryKey;autoIncrement" json:"-"`

	// Natural key
	Year            string `gorm:"column:nf;type:varchar(10);not null;uniqueIndex:uq_hist_group_natural_key,priority:1" json:"nf" validate:"required"`
	InstitutionCode string `gorm:"column:yxdm;type:varchar(20);not null;uniqueIndex:uq_hist_group_natural_key,priority:2" json:"yxdm"`
	GroupCode       string `gorm:"column:zyzdm;type:varchar(20);not null;uniqueIndex:uq_hist_group_natural_key,priority:3" json:"zyzdm" validate:"required"`
	GroupSeq        string `gorm:"column:zyzbh;type:varchar(20);not null;uniqueIndex:uq_hist_group_natural_key,priority:4" json:"zyzbh"`

	RegistryCode    *string `gorm:"column:yxdh;type:varchar(20)" json:"yxdh"`
	InstitutionName *string `gorm:"column:yxmc;type:varchar(100)" json:"yxmc"`
	ProvinceCode    *string `gorm:"column:ssdm;type:varchar(20)" json:"ssdm"`
	ProvinceName    *string `gorm:"column:ssmc;type:varchar(50)" json:"ssmc"`
	CityCode        *string `gorm:"column:djsdm;type:varchar(20)" json:"djsdm"`
	CityName        *string `gorm:"column:djsmc;type:varchar(50)" json:"djsmc"`
	SponsorCode     *string `gorm:"column:yxjbzdm;type:varchar(20)" json:"yxjbzdm"`
	Is985           *bool   `gorm:"column:sf985" json:"sf985"`
	Is211           *bool   `gorm:"column:sf211" json:"sf211"`
	DoubleFirst     *string `gorm:"column:sfsyl;type:varchar(20)" json:"sfsyl"`
	PlanAttrCode    *string `gorm:"column:jhsxdm;type:varchar(20)" json:"jhsxdm"`
	GroupName       *string `gorm:"column:zyzmc;type:varchar(100)" json:"zyzmc"`
	ProgramNames    *string `gorm:"column:zymc_str;type:text" json:"zymcStr"`
	Admitted        *int    `gorm:"column:lqrs" json:"lqrs"`
	MinRank         *string `gorm:"column:zdmc;type:varchar(50)" json:"zdmc"`
	MaxScore        *int    `gorm:"column:zgf" json:"zgf"`
	MinScore        *int    `gorm:"column:zdf" json:"zdf"`
	AvgScore        *int    `gorm:"column:pjf" json:"pjf"`

	Audit
}

// HistoricalProgramScore is a year-stamped admission outcome for a single
// program. The source carries no stable program id, so the natural key spans
// nearly every descriptive column.
type HistoricalProgramScore struct {
	KeyID uint `gorm:"column:key_id;primaryKey;autoIncrement" json:"-"`

	Year            string `gorm:"column:nf;type:varchar(10);not null;uniqueIndex:uq_hist_program_natural_key,priority:1" json:"nf" validate:"required"`
	InstitutionName string `gorm:"column:yxmc;type:varchar(100);not null;uniqueIndex:uq_hist_program_natural_key,priority:2" json:"yxmc" validate:"required"`
	GroupCode       string `gorm:"column:zyzdm;type:varchar(20);not null;uniqueIndex:uq_hist_program_natural_key,priority:3" json:"zyzdm"`
	GroupSeq        string `gorm:"column:zyzbh;type:varchar(20);not null;uniqueIndex:uq_hist_program_natural_key,priority:4" json:"zyzbh"`
	ProgramName     string `gorm:"column:zymc;type:varchar(100);not null;uniqueIndex:uq_hist_program_natural_key,priority:5" json:"zymc"`
	AvgRank         string `gorm:"column:pjmc;type:varchar(50);not null;uniqueIndex:uq_hist_program_natural_key,priority:6" json:"pjmc"`
	AvgScore        int    `gorm:"column:pjf;not null;uniqueIndex:uq_hist_program_natural_key,priority:7" json:"pjf"`
	Admitted        int    `gorm:"column:lqrs;not null;uniqueIndex:uq_hist_program_natural_key,priority:8" json:"lqrs"`
	ProgramCode     string `gorm:"column:zydm;type:varchar(20);not null;uniqueIndex:uq_hist_program_natural_key,priority:9" json:"zydm"`

	Audit
}
