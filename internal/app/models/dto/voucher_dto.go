package dto

// VoucherItem is one voucher to issue. Either MUID or Email identifies the user.
type VoucherItem struct {
	MUID    string `json:"muid" binding:"required_without=Email"`
	Email   string `json:"email" binding:"omitempty,email"`
	Hashtag string `json:"hashtag" binding:"required,hashtag"`
	Karma   int    `json:"karma" binding:"required,min=1,max=10000"`
	Month   string `json:"month" binding:"required,oneof=January February March April May June July August September October November December"`
	Week    string `json:"week" binding:"required,oneof=1 2 3 4 5"`
}

// IssueVouchersRequest issues a batch of vouchers
type IssueVouchersRequest struct {
	Items []VoucherItem `json:"items" binding:"required,min=1,max=500,dive"`
}

// ClaimVoucherRequest redeems a voucher
type ClaimVoucherRequest struct {
	Code string `json:"code" binding:"required,vouchercode" example:"MU-7KQ2ZP4D"`
}
