package domain

// 入力ファイル上のフィールド名
const (
	FieldTitle       = "titulo"
	FieldDescription = "descripcion"
	FieldCategory    = "categoria"
	FieldStartDate   = "fecha_inicio"
	FieldEndDate     = "fecha_fin"
	FieldStartTime   = "hora_inicio"
	FieldEndTime     = "hora_fin"
)

// Fields 認識するフィールド名（読み込み順）
var Fields = []string{
	FieldTitle, FieldDescription, FieldCategory,
	FieldStartDate, FieldEndDate, FieldStartTime, FieldEndTime,
}

// RequiredFields 必須フィールド名（検証順）
var RequiredFields = []string{FieldTitle, FieldDescription, FieldCategory, FieldStartDate}

// aliases 英語名で書かれた入力も受け付ける
var aliases = map[string]string{
	FieldTitle:       "title",
	FieldDescription: "description",
	FieldCategory:    "category",
	FieldStartDate:   "start_date",
	FieldEndDate:     "end_date",
	FieldStartTime:   "start_time",
	FieldEndTime:     "end_time",
}

// Alias フィールドの英語名を返す
func Alias(field string) string {
	return aliases[field]
}

// Unit レコードの位置の数え方
type Unit string

const (
	UnitIndex     Unit = "インデックス"
	UnitRow       Unit = "行"
	UnitComponent Unit = "VEVENT"
)

// Record 検証前のイベント候補
type Record struct {
	Unit     Unit
	Position int

	Title       RawValue
	Description RawValue
	Category    RawValue
	StartDate   RawValue
	EndDate     RawValue
	StartTime   RawValue
	EndTime     RawValue

	// Err 読み込み時点でイベントとして扱えないと判明している場合に設定される
	Err error
}

// Set フィールド名を指定して値を設定する。未知のフィールドは無視してfalseを返す
func (r *Record) Set(field string, v RawValue) bool {
	switch field {
	case FieldTitle:
		r.Title = v
	case FieldDescription:
		r.Description = v
	case FieldCategory:
		r.Category = v
	case FieldStartDate:
		r.StartDate = v
	case FieldEndDate:
		r.EndDate = v
	case FieldStartTime:
		r.StartTime = v
	case FieldEndTime:
		r.EndTime = v
	default:
		return false
	}
	return true
}

// Get フィールド名を指定して値を取得する
func (r Record) Get(field string) RawValue {
	switch field {
	case FieldTitle:
		return r.Title
	case FieldDescription:
		return r.Description
	case FieldCategory:
		return r.Category
	case FieldStartDate:
		return r.StartDate
	case FieldEndDate:
		return r.EndDate
	case FieldStartTime:
		return r.StartTime
	case FieldEndTime:
		return r.EndTime
	}
	return Absent()
}
