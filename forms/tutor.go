package forms

type TutorProfile struct {
	FirstName    string  `json:"first_name" validate:"required,min=2,max=100,name"`
	LastName     string  `json:"last_name" validate:"omitempty,max=100,name"`
	Phone        string  `json:"phone" validate:"omitempty,phone"`
	Headline     *string `json:"headline" validate:"omitempty,max=255"`
	Bio          *string `json:"bio" validate:"omitempty,max=2000"`
	Expertise    *string `json:"expertise" validate:"omitempty,max=255"`
	Experience   *string `json:"experience" validate:"omitempty,max=2000"`
	ProfileImage *string `json:"profile_image" validate:"omitempty,url"`
}

type Lesson struct {
	Title           string  `json:"title" validate:"required,min=2,max=200"`
	Description     *string `json:"description" validate:"omitempty,max=2000"`
	VideoURL        string  `json:"video_url" validate:"omitempty,url"`
	DurationMinutes int     `json:"duration_minutes" validate:"gte=0,lte=1440"`
	IsPreview       bool    `json:"is_preview"`
}

type Module struct {
	Title   string   `json:"title" validate:"required,min=2,max=200"`
	Lessons []Lesson `json:"lessons" validate:"omitempty,dive"`
}

type Course struct {
	Title       string   `json:"title" validate:"required,min=3,max=200"`
	Subtitle    *string  `json:"subtitle" validate:"omitempty,max=255"`
	Description string   `json:"description" validate:"omitempty,max=5000"`
	CategoryID  string   `json:"category_id" validate:"omitempty,uuid"`
	Level       string   `json:"level" validate:"omitempty,oneof=beginner intermediate advanced all"`
	Language    string   `json:"language" validate:"omitempty,max=50"`
	Thumbnail   *string  `json:"thumbnail" validate:"omitempty,url"`
	Price       float64  `json:"price" validate:"gte=0,lte=1000000"`
	Modules     []Module `json:"modules" validate:"omitempty,dive"`
}

type CheckTitle struct {
	Title    string `json:"title" validate:"required,min=3,max=200"`
	CourseID string `json:"course_id" validate:"omitempty,uuid"`
}

type BankAccount struct {
	AccountHolder string `json:"account_holder" validate:"required,min=2,max=150,name"`
	AccountNumber string `json:"account_number" validate:"required,numeric,min=9,max=18"`
	IFSC          string `json:"ifsc" validate:"required,alphanum,len=11"`
	BankName      string `json:"bank_name" validate:"required,min=2,max=150"`
	IsPrimary     bool   `json:"is_primary"`
}

type Withdrawal struct {
	Amount        float64 `json:"amount" validate:"required,gt=0"`
	BankAccountID string  `json:"bank_account_id" validate:"required,uuid"`
}
