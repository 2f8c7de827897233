package model

import (
	"time"

	"gorm.io/datatypes"
)

// InstitutionDetail is the rich school profile served as info.json by the
// static-data endpoint. Its four child collections are owned exclusively by
// the row and are replaced as a unit on every re-import.
type InstitutionDetail struct {
	ID       uint   `gorm:"primaryKey" json:"-"`
	SchoolID string `gorm:"column:school_id;type:varchar(50);not null;uniqueIndex:uq_institution_detail_school" json:"school_id" validate:"required"`
	Name     string `gorm:"type:varchar(200);not null;index:idx_institution_detail_name" json:"name" validate:"required"`

	DataCode         *string `gorm:"type:varchar(50)" json:"data_code"`
	Type             *string `gorm:"type:varchar(50)" json:"type"`
	SchoolType       *string `gorm:"type:varchar(50)" json:"school_type"`
	SchoolNature     *string `gorm:"type:varchar(50)" json:"school_nature"`
	Level            *string `gorm:"type:varchar(50)" json:"level"`
	CodeEnroll       *string `gorm:"type:varchar(50)" json:"code_enroll"`
	ZsCode           *string `gorm:"type:varchar(50)" json:"zs_code"`
	Belong           *string `gorm:"type:varchar(100)" json:"belong"`
	F985             *string `gorm:"column:f985;type:varchar(10);index:idx_institution_detail_tier,priority:1" json:"f985"`
	F211             *string `gorm:"column:f211;type:varchar(10);index:idx_institution_detail_tier,priority:2" json:"f211"`
	Department       *string `gorm:"type:varchar(100)" json:"department"`
	Admissions       *string `gorm:"type:varchar(10)" json:"admissions"`
	Central          *string `gorm:"type:varchar(10)" json:"central"`
	DualClass        *string `gorm:"type:varchar(10)" json:"dual_class"`
	IsSeal           *string `gorm:"type:varchar(10)" json:"is_seal"`
	AppliedGrade     *string `gorm:"type:varchar(20)" json:"applied_grade"`
	Vocational       *string `gorm:"type:varchar(10)" json:"vocational"`
	NumSubject       *string `gorm:"type:varchar(20)" json:"num_subject"`
	NumMaster        *string `gorm:"type:varchar(20)" json:"num_master"`
	NumDoctor        *string `gorm:"type:varchar(20)" json:"num_doctor"`
	NumAcademician   *string `gorm:"type:varchar(20)" json:"num_academician"`
	NumLibrary       *string `gorm:"type:varchar(50)" json:"num_library"`
	NumLab           *string `gorm:"type:varchar(20)" json:"num_lab"`
	NumMaster2       *string `gorm:"column:num_master2;type:varchar(20)" json:"num_master2"`
	NumDoctor2       *string `gorm:"column:num_doctor2;type:varchar(20)" json:"num_doctor2"`
	ProvinceID       *string `gorm:"type:varchar(20)" json:"province_id"`
	CityID           *string `gorm:"type:varchar(20)" json:"city_id"`
	CountyID         *string `gorm:"type:varchar(20)" json:"county_id"`
	ProvinceName     *string `gorm:"type:varchar(50);index:idx_institution_detail_region,priority:1" json:"province_name"`
	CityName         *string `gorm:"type:varchar(50);index:idx_institution_detail_region,priority:2" json:"city_name"`
	TownName         *string `gorm:"type:varchar(50)" json:"town_name"`
	IsAds            *string `gorm:"type:varchar(10)" json:"is_ads"`
	IsRecruitment    *string `gorm:"type:varchar(10)" json:"is_recruitment"`
	CreateDate       *string `gorm:"type:varchar(20)" json:"create_date"`
	Area             *int    `json:"area"`
	OldName          *string `gorm:"type:varchar(200)" json:"old_name"`
	IsFenxiao        *string `gorm:"type:varchar(10)" json:"is_fenxiao"`
	Status           *string `gorm:"type:varchar(10)" json:"status"`
	AdLevel          *string `gorm:"type:varchar(10)" json:"ad_level"`
	Short            *string `gorm:"type:varchar(50)" json:"short"`
	EPc              *string `gorm:"column:e_pc;type:varchar(10)" json:"e_pc"`
	EApp             *string `gorm:"column:e_app;type:varchar(10)" json:"e_app"`
	Single           *string `gorm:"type:varchar(10)" json:"single"`
	CollegesLevel    *string `gorm:"type:varchar(50)" json:"colleges_level"`
	DoubleHigh       *string `gorm:"column:doublehigh;type:varchar(10)" json:"doublehigh"`
	RuankeRank       *string `gorm:"type:varchar(20)" json:"ruanke_rank"`
	WslRank          *string `gorm:"type:varchar(20)" json:"wsl_rank"`
	QsRank           *string `gorm:"type:varchar(20)" json:"qs_rank"`
	XyhRank          *string `gorm:"type:varchar(20)" json:"xyh_rank"`
	EolRank          *string `gorm:"type:varchar(20)" json:"eol_rank"`
	UsRank           *string `gorm:"type:varchar(20)" json:"us_rank"`
	QsWorld          *string `gorm:"type:varchar(20)" json:"qs_world"`
	SchoolBatch      *string `gorm:"type:varchar(50)" json:"school_batch"`
	IsLogo           *string `gorm:"type:varchar(10)" json:"is_logo"`
	AiStatus         *string `gorm:"type:varchar(10)" json:"ai_status"`
	IsAds2           *string `gorm:"column:is_ads2;type:varchar(10)" json:"is_ads2"`
	CoopMoney        *string `gorm:"type:varchar(20)" json:"coop_money"`
	BdoldName        *string `gorm:"column:bdold_name;type:varchar(200)" json:"bdold_name"`
	CollegeEmploy    *string `gorm:"column:college_employment;type:varchar(20)" json:"college_employment"`
	XyqID            *string `gorm:"column:xyq_id;type:varchar(20)" json:"xyq_id"`
	SeniorStatus     *string `gorm:"type:varchar(10)" json:"senior_status"`
	SeniorShow       *string `gorm:"type:varchar(10)" json:"senior_show"`
	IsUpgrade        *string `gorm:"type:varchar(10)" json:"is_upgrade"`
	ViewTotalShow    *string `gorm:"type:varchar(20)" json:"view_total_show"`
	GbShow           *string `gorm:"type:varchar(10)" json:"gb_show"`
	GbhNum           *string `gorm:"type:varchar(20)" json:"gbh_num"`
	Motto            *string `gorm:"type:text" json:"motto"`
	UpgradingRate    *string `gorm:"type:varchar(20)" json:"upgrading_rate"`
	RecommendRate    *string `gorm:"column:recommend_master_rate;type:varchar(20)" json:"recommend_master_rate"`
	RecommendLevel   *int    `gorm:"column:recommend_master_level" json:"recommend_master_level"`
	IsShowXcxcode    *int    `json:"is_show_xcxcode"`
	LevelName        *string `gorm:"type:varchar(50)" json:"level_name"`
	TypeName         *string `gorm:"type:varchar(50);index:idx_institution_detail_type" json:"type_name"`
	SchoolTypeName   *string `gorm:"type:varchar(50)" json:"school_type_name"`
	SchoolNatureName *string `gorm:"type:varchar(50)" json:"school_nature_name"`
	DualClassName    *string `gorm:"type:varchar(50)" json:"dual_class_name"`
	SingleYear       *int    `json:"single_year"`
	Email            *string `gorm:"type:varchar(200)" json:"email"`
	SchoolEmail      *string `gorm:"type:varchar(200)" json:"school_email"`
	Address          *string `gorm:"type:varchar(500)" json:"address"`
	Postcode         *string `gorm:"type:varchar(20)" json:"postcode"`
	Site             *string `gorm:"type:varchar(500)" json:"site"`
	SchoolSite       *string `gorm:"type:varchar(500)" json:"school_site"`
	Phone            *string `gorm:"type:varchar(200)" json:"phone"`
	SchoolPhone      *string `gorm:"type:varchar(200)" json:"school_phone"`
	Miniprogram      *string `gorm:"type:varchar(200)" json:"miniprogram"`
	Content          *string `gorm:"type:text" json:"content"`
	Weiwangzhan      *string `gorm:"type:varchar(500)" json:"weiwangzhan"`
	Yjszs            *string `gorm:"type:varchar(500)" json:"yjszs"`
	Xiaoyuan         *string `gorm:"type:varchar(500)" json:"xiaoyuan"`
	IsVideo          *int    `json:"is_video"`
	SpecialNum       *int    `gorm:"column:school_special_num" json:"school_special_num"`
	ScoreYear        *string `gorm:"column:province_score_year;type:varchar(20)" json:"province_score_year"`
	GbhURL           *string `gorm:"column:gbh_url;type:varchar(500)" json:"gbh_url"`
	IsYikao          *int    `json:"is_yikao"`
	IsIntlUG         *int    `gorm:"column:is_international_undergraduate" json:"is_international_undergraduate"`
	IsEvaluation     *int    `json:"is_evaluation"`
	IsSpecialProject *int    `json:"is_special_project"`
	MD5              *string `gorm:"column:md5;type:varchar(50)" json:"md5"`

	// JSON sub-documents
	XuekeRank      datatypes.JSON `json:"xueke_rank"`
	ProvinceSingle datatypes.JSON `json:"province_single"`
	Remark         datatypes.JSON `json:"remark"`
	URLLinks       datatypes.JSON `gorm:"column:urllinks" json:"urllinks"`
	Video          datatypes.JSON `json:"video"`
	VideoPC        datatypes.JSON `gorm:"column:video_pc" json:"video_pc"`
	DualClassList  datatypes.JSON `gorm:"column:dualclass" json:"dualclass"`
	Rank           datatypes.JSON `json:"rank"`
	Fenxiao        datatypes.JSON `json:"fenxiao"`
	YkFeature      datatypes.JSON `json:"yk_feature"`
	YkType         datatypes.JSON `json:"yk_type"`
	SingleProvince datatypes.JSON `json:"single_province"`

	Version   int       `gorm:"not null;default:1" json:"version"`
	CreatedAt time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time `gorm:"autoUpdateTime" json:"updated_at"`

	// Relationships
	MasterDegrees    []MasterDegreePoint    `gorm:"foreignKey:SchoolID;references:SchoolID;constraint:OnDelete:CASCADE" json:"-"`
	DoctorateDegrees []DoctorateDegreePoint `gorm:"foreignKey:SchoolID;references:SchoolID;constraint:OnDelete:CASCADE" json:"-"`
	Subjects         []Subject              `gorm:"foreignKey:SchoolID;references:SchoolID;constraint:OnDelete:CASCADE" json:"-"`
	Specialties      []Specialty            `gorm:"foreignKey:SchoolID;references:SchoolID;constraint:OnDelete:CASCADE" json:"-"`
}

// DetailChildren groups the four collections owned by an InstitutionDetail.
type DetailChildren struct {
	MasterDegrees    []MasterDegreePoint
	DoctorateDegrees []DoctorateDegreePoint
	Subjects         []Subject
	Specialties      []Specialty
}

// Len returns the total number of child rows.
func (c DetailChildren) Len() int {
	return len(c.MasterDegrees) + len(c.DoctorateDegrees) + len(c.Subjects) + len(c.Specialties)
}

// MasterDegreePoint is a master's degree authorization held by a school.
type MasterDegreePoint struct {
	ID       uint    `gorm:"primaryKey" json:"-"`
	SchoolID string  `gorm:"column:school_id;type:varchar(50);not null;index:idx_master_degree_school" json:"school_id"`
	Name     string  `gorm:"type:varchar(200);not null" json:"name" validate:"required"`
	Num      *string `gorm:"type:varchar(10)" json:"num"`
	Audit
}

// DoctorateDegreePoint is a doctoral degree authorization held by a school.
type DoctorateDegreePoint struct {
	ID       uint    `gorm:"primaryKey" json:"-"`
	SchoolID string  `gorm:"column:school_id;type:varchar(50);not null;index:idx_doctorate_degree_school" json:"school_id"`
	Name     string  `gorm:"type:varchar(200);not null" json:"name" validate:"required"`
	Num      *string `gorm:"type:varchar(10)" json:"num"`
	Audit
}

// Subject is a key discipline listed on a school profile.
type Subject struct {
	ID       uint   `gorm:"primaryKey" json:"-"`
	SchoolID string `gorm:"column:school_id;type:varchar(50);not null;index:idx_subject_school" json:"school_id"`
	Name     string `gorm:"type:varchar(200);not null" json:"name" validate:"required"`
	Audit
}

// Specialty is a featured program listed on a school profile.
type Specialty struct {
	ID               uint    `gorm:"primaryKey" json:"-"`
	SchoolID         string  `gorm:"column:school_id;type:varchar(50);not null;index:idx_specialty_school" json:"school_id"`
	SpecialtyID      *string `gorm:"column:specialty_id;type:varchar(50)" json:"id"`
	SpecialID        *string `gorm:"column:special_id;type:varchar(50)" json:"special_id"`
	NationFeature    *string `gorm:"type:varchar(10);index:idx_specialty_features,priority:1" json:"nation_feature"`
	ProvinceFeature  *string `gorm:"type:varchar(10);index:idx_specialty_features,priority:2" json:"province_feature"`
	IsImportant      *string `gorm:"type:varchar(10)" json:"is_important"`
	LimitYear        *string `gorm:"type:varchar(20)" json:"limit_year"`
	Year             *string `gorm:"type:varchar(10)" json:"year"`
	Level3Weight     *string `gorm:"column:level3_weight;type:varchar(10)" json:"level3_weight"`
	NationFirstClass *string `gorm:"type:varchar(10)" json:"nation_first_class"`
	XuekeRank        *string `gorm:"type:varchar(10)" json:"xueke_rank"`
	XuekeRankScore   *string `gorm:"type:varchar(10)" json:"xueke_rank_score"`
	RuankeRank       *string `gorm:"type:varchar(10)" json:"ruanke_rank"`
	RuankeLevel      *string `gorm:"type:varchar(10)" json:"ruanke_level"`
	IsVideo          *int    `json:"is_video"`
	SpecialName      *string `gorm:"type:varchar(200);index:idx_specialty_name" json:"special_name"`
	LevelName        *string `gorm:"type:varchar(50)" json:"level_name"`
	Audit
}
