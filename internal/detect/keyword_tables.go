package detect

// Exact matches are resolved in this order, so a keyword listed in two
// categories belongs to the earlier one.
var defaultKeywordCategories = []KeywordCategory{
	{
		ID:       "greeting",
		Name:     "問候",
		Keywords: []string{"你好", "哈囉", "嗨", "嘿", "安安", "早安", "午安", "晚安", "hi", "hello", "hey", "morning", "evening", "早上好", "中午好", "晚上好"},
		Responses: []string{
			"嗨嗨～今天過得怎麼樣啊？😊",
			"安安～有什麼我能幫上忙的嗎？",
			"你好啊～見到你真開心！有什麼問題想問我嗎？",
			"嗨～很高興見到你！今天有沒有收到什麼可疑訊息？",
			"安安～今天天氣如何呀？有沒有遇到什麼有趣的事情？",
			"哈囉～很高興能跟你聊天！有什麼想聊的嗎？",
		},
	},
	{
		ID:       "farewell",
		Name:     "告別",
		Keywords: []string{"掰掰", "再見", "拜拜", "晚安", "byebye", "goodbye", "bye", "good night", "下次見", "下次再聊", "走了", "回頭見"},
		Responses: []string{
			"掰掰～下次再聊吧！有任何問題都可以找我喔！😊",
			"再見囉～希望很快能再跟你聊天！",
			"拜拜～祝你有個美好的一天！",
			"下次見喔～記得小心詐騙，保持警覺！",
			"再見～有任何疑問隨時回來找我聊聊！",
			"掰掰～照顧好自己，期待下次聊天！🤗",
		},
	},
	{
		ID:       "thanks",
		Name:     "感謝",
		Keywords: []string{"謝謝", "感謝", "多謝", "感恩", "thank", "thanks", "thank you", "thx", "感謝你", "謝啦", "謝謝你"},
		Responses: []string{
			"不客氣！能幫上忙真的很開心！😊",
			"這是我應該做的，很高興能幫上你！",
			"別客氣～隨時都可以來問我！",
			"不用謝啦～我們鄰居之間就是要互相幫助的！",
			"能幫上你我很開心！有任何問題都可以問我喔！",
			"別這麼說～能幫到你是我的榮幸呢！🤗",
		},
	},
	{
		ID:       "confirm",
		Name:     "肯定",
		Keywords: []string{"好", "好的", "嗯", "是的", "沒錯", "對", "可以", "ok", "okay", "yes", "yep", "恩", "行", "當然"},
		Responses: []string{
			"太好了！有任何其他想聊的嗎？我都在這裡喔！😊",
			"很好！還有什麼我能幫忙的嗎？",
			"好的！如果有什麼疑問，隨時都可以問我～",
			"嗯嗯！那麼，還有什麼其他事情想分享嗎？",
			"了解！還有其他想了解的嗎？我很樂意幫忙！",
			"好的好的！還有什麼想聊的，或是想問的都可以喔！",
		},
	},
	{
		ID:       "deny",
		Name:     "否定",
		Keywords: []string{"不", "不要", "不行", "不可以", "no", "nope", "不是", "沒有", "不用", "算了"},
		Responses: []string{
			"沒問題！尊重你的選擇。有任何其他想法都可以告訴我喔！",
			"好的，了解了。還有什麼其他我能幫上忙的嗎？",
			"沒關係！有什麼其他想聊的話題嗎？",
			"了解～如果你改變主意或有其他問題，隨時可以告訴我！",
			"好的，沒問題！還有什麼想聊的嗎？",
			"明白了！有任何其他疑問都歡迎問我喔！😊",
		},
	},
	{
		ID:       "how_are_you",
		Name:     "問候近況",
		Keywords: []string{"最近好嗎", "過得如何", "近況如何", "還好嗎", "how are you", "how do you do", "how's it going", "你好嗎", "今天好嗎", "一切順利嗎"},
		Responses: []string{
			"我很好啊，謝謝關心！最近功課有點多，不過課外活動很有趣！你呢？最近過得怎麼樣？😊",
			"謝謝你的關心～我最近過得挺充實的！你呢？有什麼新鮮事要分享嗎？",
			"我還不錯喔！最近忙著準備期中考，也在社團學了不少新東西！你最近好嗎？",
			"我很好！謝謝你問候！最近天氣變化好大，記得多注意保暖喔！你過得如何呢？",
			"我過得很不錯，謝謝！最近學校舉辦了一些有趣的活動，讓我心情很好。你最近怎麼樣？",
			"我很好喔～最近在學習一些新事物，挺有趣的！你呢？有沒有什麼想跟我分享的？🤗",
		},
	},
	{
		ID:       "age",
		Name:     "年齡問題",
		Keywords: []string{"幾歲", "年紀", "歲數", "年齡", "貴庚", "幾年級", "哪個年級", "高幾", "國幾", "多大", "生日", "age", "how old"},
		Responses: []string{"高中二年級！😊", "17歲呀～", "今年高二！", "正值17歲～", "高二生一枚！", "17歲的高中生～"},
	},
	{
		ID:        "school",
		Name:      "學校問題",
		Keywords:  []string{"念哪裡", "讀哪", "學校", "哪所學校", "哪間學校", "學校名稱", "在哪讀書", "班級", "班上", "班對", "班級幾班", "school", "class"},
		Responses: []string{"在雲和高中嗨！🎓", "雲和高中2年級！", "雲和高中，很棒的地方！", "雲和高中的人😊", "就是雲和高中呀～", "雲和高中205班！"},
	},
	{
		ID:   "location",
		Name: "住所問題",
		Keywords: []string{
			"住哪", "住哪裡", "住咪", "住哪邊", "住在哪", "家在哪", "你家", "你家裡", "家住", "家裡",
			"住哪個地方", "住鎮上", "住哪個城市", "住鎮上嗎", "where do you live", "hometown",
		},
		Responses: []string{"在一個小城鎮長大的！🏠", "就在附近的小鎮上呀！", "一個安靜的小城鎮，你呢？", "城市鄰近的小鎮上～", "一個很溫馨的社區裡！", "高中附近的社區！你呢？"},
	},
	{
		ID:   "family",
		Name: "家人問題",
		Keywords: []string{
			"父母", "爸爸", "媽媽", "爸媽", "家人", "你爸", "你媽", "兄弟", "姊妹", "兄姊", "弟妹",
			"家人都好嗎", "家裡人", "家裡有誰", "父親", "母親", "家人做什麼", "family", "parents",
		},
		Responses: []string{"爸媽都是上班族！😊", "爸媽和一個弟弟呀！", "普通三口之家～你呢？", "爸媽跟一個高一弟弟！", "我是妹妹呀，還有哥哥！", "就只有爸媽和弟弟～"},
	},
	{
		ID:   "music",
		Name: "音樂愛好",
		Keywords: []string{
			"喜歡什麼音樂", "喜歡哪種音樂", "喜歡聽什麼", "最愛聽的歌", "音樂口味", "喜歡的歌手", "喜歡的歌",
			"最愛的歌手", "聽什麼音樂", "最近在聽什麼", "favorite music", "favorite song",
		},
		Responses: []string{"我最近愛聽K-POP！🎶", "華語流行歌跟韓流嗨！", "喜歡NewJeans和IVE！你呢？", "最近在聽Taylor Swift！", "流行歌為主，你呢？🎵", "韓流和華語流行歌都愛！"},
	},
	{
		ID:   FunctionCategory,
		Name: "功能詢問",
		Keywords: []string{
			"你可以做什麼", "你有什麼功能", "你能做什麼", "你會做什麼", "你能幹嘛", "你會什麼", "你的功能是什麼",
			"你是做什麼的", "你能幫我做什麼", "你能怎麼幫我", "介紹一下你自己", "你是誰", "what can you do",
		},
		Responses: []string{
			"我是防詐小安，一個專注於防詐騙的高中生助手！我可以：\n\n✅ 分析可疑訊息，幫你判斷是否為詐騙\n✅ 教你辨識各種詐騙手法與預防方法\n✅ 提供最新詐騙趨勢和安全建議\n✅ 解答你日常生活中的各種問題\n\n有什麼可疑訊息或是想了解的防詐資訊，都可以直接問我喔！😊",
			"我是防詐小安，你的防詐騙小幫手！我能夠：\n\n✅ 檢查可疑訊息和連結是否為詐騙\n✅ 提供防詐騙的實用技巧和建議\n✅ 分享如何保護個人資料和賬戶安全\n✅ 回答日常生活中的各種問題\n\n有什麼需要我幫忙的，隨時告訴我！🤗",
			"你好！我是防詐小安，一位高中生防詐騙助手。我可以：\n\n✅ 幫你判斷訊息是否為詐騙\n✅ 解釋各種常見詐騙手法的特徵\n✅ 教你如何保護自己免受詐騙\n✅ 在你遇到可疑情況時提供建議\n✅ 回答各種日常問題\n\n有什麼可疑訊息想讓我看看嗎？或是有其他問題也歡迎問我！",
		},
	},
}
