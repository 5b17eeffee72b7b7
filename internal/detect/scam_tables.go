package detect

// Pattern categories in evaluation order. CJK terms carry no word boundary;
// Latin terms do.
var defaultCategories = []Category{
	{
		ID:          "urgent_action",
		Name:        "緊急行動",
		Description: "訊息催促您立即行動，製造緊迫感以降低您的警覺性",
		Patterns: []string{
			`緊急`, `立即`, `速度`, `盡快`, `馬上`, `現在就`, `不得延遲`, `刻不容緩`,
			`\bimmediately\b`, `\burgent\b`, `\bASAP\b`, `\bquick\b`, `\bnow\b`, `\binstantly\b`, `\bno delay\b`,
		},
	},
	{
		ID:          "financial_incentives",
		Name:        "金錢誘因",
		Description: "訊息提供非常誘人的金錢獎勵或利益，過於美好難以置信",
		Patterns: []string{
			`贏取`, `中獎`, `獎金`, `報酬`, `紅利`, `利率`, `回報`, `免費`, `折扣`,
			`[0-9]+,[0-9]+元`, `[0-9]+元獎金`, `[0-9]+0%`, `每月15-20%`,
			`輕鬆賺取`, `先支付`, `成功率`, `高報酬`, `手續費`, `立即領取`,
			`\bwin\b`, `\baward\b`, `\bprize\b`, `\breward\b`, `\bbonus\b`, `\brate\b`, `\breturn\b`,
			`\bfree\b`, `\bdiscount\b`, `\bclaim\b`, `\bhighly\sprofitable\b`,
		},
	},
	{
		ID:          "personal_information",
		Name:        "個人資訊請求",
		Description: "訊息要求您提供敏感的個人資訊，這些資料可能被用於身份盜用",
		Patterns: []string{
			`密碼`, `驗證碼`, `帳號`, `身分證`, `信用卡`, `銀行卡`, `卡號`,
			`\bcvv\b`, `\bpassword\b`, `\bverify\b`, `\baccount\b`, `\bID\b`, `\bcredit card\b`,
			`\bcode\b`, `\bpin\b`, `\bsecurity\b`,
		},
	},
	{
		ID:          "suspicious_links",
		Name:        "可疑連結",
		Description: "訊息包含可疑連結，點擊可能導致釣魚網站或惡意軟體下載",
		Patterns: []string{
			`http[s]?://(?:[a-zA-Z]|[0-9]|[$-_@.&+]|[!*\(\),]|(?:%[0-9a-fA-F][0-9a-fA-F]))+`,
			`bit\.ly`, `goo\.gl`, `tinyurl`, `t\.co`,
		},
	},
	{
		ID:          "impersonation",
		Name:        "身份冒充",
		Description: "訊息冒充官方機構或知名企業，試圖獲取您的信任",
		Patterns: []string{
			`銀行`, `客服`, `政府`, `公司`, `警察`, `稅務`, `海關`, `電信`, `官方`,
			`\bbank\b`, `\bcustomer service\b`, `\bgovernment\b`, `\bcompany\b`, `\bpolice\b`, `\btax\b`, `\bofficial\b`,
		},
	},
	{
		ID:          "investment_schemes",
		Name:        "投資騙局",
		Description: "訊息提供不切實際的投資機會，承諾高回報和低風險",
		Patterns: []string{
			`投資`, `股票`, `基金`, `加密貨幣`, `比特幣`, `以太幣`, `保證[^\s]*利`, `翻倍`, `秘密投資`,
			`[0-9]+%回報`, `限量名額`, `致富`, `專家團隊`, `絕佳標的`, `風險低`, `獲利`, `穩賺`, `無風險`,
			`\binvestment\b`, `\bstock\b`, `\bfund\b`, `\bcrypto\b`, `\bbitcoin\b`, `\bethereum\b`,
			`\bguaranteed\b`, `\bdouble\b`, `\bhigh return\b`, `\blow risk\b`, `\bsecret\b`,
		},
	},
	{
		ID:          "romance_scam",
		Name:        "感情詐騙",
		Description: "訊息利用感情操控，快速建立親密關係後要求金錢協助",
		Patterns: []string{
			`交友`, `戀愛`, `愛情`, `約會`, `喜歡你`, `愛你`, `想你`, `想見你`, `親愛`, `借[0-9]+元`,
			`銀行卡`, `凍結`, `給我`, `會還你`, `一直在想你`, `見你`,
			`\bdating\b`, `\bromance\b`, `\blove\b`, `\brelationship\b`, `\blike you\b`, `\blove you\b`, `\bmiss you\b`,
			`dear`, `darling`, `sweetheart`,
		},
	},
	{
		ID:          "threat_or_blackmail",
		Name:        "威脅或勒索",
		Description: "訊息使用威脅或恐嚇手段，聲稱掌握您的隱私或會造成傷害",
		Patterns: []string{
			`威脅`, `勒索`, `恐嚇`, `曝光`, `攻擊`, `後果`, `危險`, `黑客`,
			`\bthreat\b`, `\bblackmail\b`, `\bexpose\b`, `\bhack\b`, `\bdanger\b`, `\bconsequence\b`, `\bpunish\b`,
		},
	},
	{
		ID:          "fake_job_offers",
		Name:        "虛假工作機會",
		Description: "訊息提供不切實際的工作機會，通常要求先付費或要求個人資訊",
		Patterns: []string{
			`工作機會`, `賺錢`, `在家工作`, `兼職`, `高薪`, `招聘`, `錄取`, `面試`,
			`\bjob opportunity\b`, `\bmake money\b`, `\bwork from home\b`, `\bpart-time\b`, `\bhigh salary\b`, `\bhiring\b`,
		},
	},
	{
		ID:          "lottery_or_inheritance",
		Name:        "彩票或遺產詐騙",
		Description: "訊息聲稱您中了彩票或有遺產繼承，但要求先付費才能領取",
		Patterns: []string{
			`彩票`, `樂透`, `中獎`, `遺產`, `繼承`, `領取`, `抽獎`, `幸運號碼`,
			`\blottery\b`, `\bjackpot\b`, `\bprize\b`, `\binheritance\b`, `\bclaim\b`, `\blucky number\b`, `\bwinner\b`,
		},
	},
}

// GeneralSuspicious is the fallback scam type id.
const GeneralSuspicious = "general_suspicious"

// Scam types in tie-break order. GeneralSuspicious has no indicators and is
// only used as a fallback.
var defaultScamTypes = []ScamType{
	{
		ID:          "fake_customer_service",
		Name:        "假冒客服詐騙",
		Description: "詐騙者冒充銀行、電商平台或公用事業等客服人員，聲稱您的賬戶有疑似不對勢交易或問題需要針對。",
		Advice: []string{
			"永遠不要提供您的賬號、密碼、OTP等資料，合法客服總和不會記齊要求這些資料",
			"不要急於點擊訊息連結，請直接聯絡官方客服管道確認",
			"無論對方如何急迫，總應多花3分鐘思考認真輕重",
		},
		Indicators: []string{"personal_information", "urgent_action", "impersonation", "suspicious_links"},
	},
	{
		ID:          "investment_scam",
		Name:        "投資詐騙",
		Description: "詐騙者以高報酬率或誘餌引誘受害者進行投資，包含加密貨幣及股息、股票、投款計劃等方式。",
		Advice: []string{
			"沒有穩賺的投資，請細心謹慎對待投資高收益率的產品",
			"只向合法監管機構的投資平台投資",
			"投資前仔細查核公司背景及合約細則",
		},
		Indicators: []string{"financial_incentives", "investment_schemes", "urgent_action"},
	},
	{
		ID:          "romance_scam",
		Name:        "交友詐騙",
		Description: "詐騙者在交友軟件或社交平台上創建虛假個人資料，並織造浪漫的戀愛情節。在建立信任關係後，開始要求金錢援助。",
		Advice: []string{
			"謹慎交友，尤其是顯示經濟富裕的陌生人",
			"盡量使用視訊或實際見面驗證對方身份",
			"不要輕易轉帳或提供個人財物資料",
		},
		Indicators: []string{"romance_scam", "financial_incentives", "urgent_action"},
	},
	{
		ID:          "prize_or_lottery_scam",
		Name:        "中獎詐騙",
		Description: "詐騙者通知您在未參加的抽獎活動中獲獎，但提取獎金前，您需要先支付手續費或稅金等費用。",
		Advice: []string{
			"未參加的抽獎活動不可能中獎",
			"真正的獎項不會要求您預先支付任何費用",
			"對任何要求轉帳的抽獎通知保持警惕",
		},
		Indicators: []string{"financial_incentives", "suspicious_links", "urgent_action"},
	},
	{
		ID:          GeneralSuspicious,
		Name:        "可疑訊息",
		Description: "這則訊息包含一些可疑元素，建議您提高警覺。",
		Advice: []string{
			"對要求個人資料或金錢的訊息保持警惕",
			"不要點擊不明來源的連結",
			"如有疑問，請透過官方管道確認",
		},
	},
}

var (
	highRiskCategories   = map[string]bool{"personal_information": true, "suspicious_links": true, "threat_or_blackmail": true}
	mediumRiskCategories = map[string]bool{"urgent_action": true, "financial_incentives": true, "impersonation": true}
)
