package validation

import (
	"regexp"
	"strings"

	"github.com/go-playground/validator/v10"
)

// Validation rule patterns
var (
	// Indian mobile numbers, optionally prefixed with +91
	MobilePattern = `^(\+91)?[6-9]\d{9}$`

	// Task hashtags are lower case and start with '#'
	HashtagPattern = `^#[a-z0-9_]{2,74}$`

	// Voucher codes as issued by the voucher service
	VoucherCodePattern = `^MU-[A-Z0-9]{8}$`

	PasswordMinLength = 8
	NameMinLength     = 2
	NameMaxLength     = 100
)

// CompiledPatterns caches compiled regex patterns
var CompiledPatterns = struct {
	Mobile      *regexp.Regexp
	Hashtag     *regexp.Regexp
	VoucherCode *regexp.Regexp
}{
	Mobile:      regexp.MustCompile(MobilePattern),
	Hashtag:     regexp.MustCompile(HashtagPattern),
	VoucherCode: regexp.MustCompile(VoucherCodePattern),
}

// custom validation tags and their messages
const (
	notBlankTag    = "notblank"
	mobileTag      = "mobile"
	hashtagTag     = "hashtag"
	voucherCodeTag = "vouchercode"

	notBlankText    = "this field cannot be blank"
	mobileText      = "{0} must be a valid mobile number"
	hashtagText     = "{0} must be a lower case hashtag such as #lcmeetreport"
	voucherCodeText = "{0} must look like MU-XXXXXXXX"
	requiredText    = "this field is required"
)

func notBlank(fl validator.FieldLevel) bool {
	if str, ok := fl.Field().Interface().(string); ok {
		return strings.TrimSpace(str) != ""
	}
	return false
}

func patternRule(re *regexp.Regexp) validator.Func {
	return func(fl validator.FieldLevel) bool {
		return re.MatchString(fl.Field().String())
	}
}
