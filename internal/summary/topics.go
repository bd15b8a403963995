package summary

import (
	"strings"

	"github.com/utafrali/productreview/internal/domain"
)

// Topic is a fixed review-discussion theme.
type Topic string

// Topics in ranking tie-break order.
const (
	TopicBattery     Topic = "battery"
	TopicPerformance Topic = "performance"
	TopicPrice       Topic = "price"
	TopicBuild       Topic = "build"
	TopicCamera      Topic = "camera"
	TopicDelivery    Topic = "delivery"
	TopicPackaging   Topic = "packaging"
	TopicComfort     Topic = "comfort"
	TopicUsability   Topic = "usability"
)

var topicOrder = []Topic{
	TopicBattery, TopicPerformance, TopicPrice, TopicBuild, TopicCamera,
	TopicDelivery, TopicPackaging, TopicComfort, TopicUsability,
}

var topicLabels = map[Topic]map[domain.Language]string{
	TopicBattery:     {domain.LangEN: "Battery", domain.LangTR: "Batarya", domain.LangES: "Batería"},
	TopicPerformance: {domain.LangEN: "Performance", domain.LangTR: "Performans", domain.LangES: "Rendimiento"},
	TopicPrice:       {domain.LangEN: "Price", domain.LangTR: "Fiyat", domain.LangES: "Precio"},
	TopicBuild:       {domain.LangEN: "Build quality", domain.LangTR: "Malzeme kalitesi", domain.LangES: "Calidad de construcción"},
	TopicCamera:      {domain.LangEN: "Camera", domain.LangTR: "Kamera", domain.LangES: "Cámara"},
	TopicDelivery:    {domain.LangEN: "Delivery", domain.LangTR: "Kargo", domain.LangES: "Envío"},
	TopicPackaging:   {domain.LangEN: "Packaging", domain.LangTR: "Paketleme", domain.LangES: "Embalaje"},
	TopicComfort:     {domain.LangEN: "Comfort", domain.LangTR: "Konfor", domain.LangES: "Comodidad"},
	TopicUsability:   {domain.LangEN: "Usability", domain.LangTR: "Kullanım", domain.LangES: "Usabilidad"},
}

// Label returns the display label of t in lang, falling back to English.
func (t Topic) Label(lang domain.Language) string {
	labels := topicLabels[t]
	if l, ok := labels[lang]; ok {
		return l
	}
	return labels[domain.LangEN]
}

type topicKeywords struct {
	topic    Topic
	keywords []string
}

// lexicon maps the topics relevant to one category bucket to the keywords
// that count as a mention.
type lexicon []topicKeywords

var (
	priceKeywords     = topicKeywords{TopicPrice, []string{"price", "fiyat", "precio", "expensive", "pahalı", "caro"}}
	deliveryKeywords  = topicKeywords{TopicDelivery, []string{"delivery", "shipping", "kargo", "envío"}}
	packagingKeywords = topicKeywords{TopicPackaging, []string{"package", "packaging", "paket", "embalaje"}}
)

var electronicsLexicon = lexicon{
	{TopicBattery, []string{"battery", "batarya", "pil", "charge", "şarj", "bateria", "carga"}},
	{TopicPerformance, []string{"performance", "speed", "fast", "performans", "hız", "rapido", "rendimiento"}},
	{TopicCamera, []string{"camera", "kamera", "cámara", "photo", "foto"}},
	{TopicBuild, []string{"build", "quality", "malzeme", "kalite", "construction", "construcción"}},
	priceKeywords,
	deliveryKeywords,
	packagingKeywords,
	{TopicUsability, []string{"usability", "easy", "kullanım", "kolay", "usabilidad"}},
}

var clothingLexicon = lexicon{
	{TopicComfort, []string{"comfortable", "comfort", "konfor", "rahat", "comodidad"}},
	{TopicBuild, []string{"fabric", "quality", "kumaş", "kalite", "tela", "calidad"}},
	priceKeywords,
	deliveryKeywords,
	packagingKeywords,
	{TopicUsability, []string{"fit", "size", "beden", "uyum", "talla", "ajuste"}},
}

var booksLexicon = lexicon{
	{TopicUsability, []string{"translation", "çeviri", "traducción", "writing", "yazım", "prose", "estilo"}},
	{TopicBuild, []string{"cover", "kapak", "paper", "kağıt", "portada", "papel"}},
	priceKeywords,
	deliveryKeywords,
	packagingKeywords,
}

var genericLexicon = lexicon{
	{TopicBuild, []string{"quality", "kalite", "calidad", "material", "malzeme"}},
	priceKeywords,
	deliveryKeywords,
	packagingKeywords,
	{TopicUsability, []string{"easy", "kolay", "usabilidad", "usable"}},
}

// lexiconBuckets is checked in order; the first bucket whose key is a
// substring of the lower-cased category wins.
var lexiconBuckets = []struct {
	match   string
	lexicon lexicon
}{
	{"electronics", electronicsLexicon},
	{"clothing", clothingLexicon},
	{"books", booksLexicon},
}

func lexiconFor(category string) lexicon {
	c := strings.ToLower(category)
	for _, b := range lexiconBuckets {
		if strings.Contains(c, b.match) {
			return b.lexicon
		}
	}
	return genericLexicon
}

// promptHints steer the model toward topics that fit the product category.
var promptHints = []struct {
	match []string
	hint  string
}{
	{
		[]string{"book", "kitap"},
		"For books, focus on topics like: Writing style, Plot, Characters, Length, Translation, Cover quality. Do NOT include hardware topics like Battery, Camera, Performance.",
	},
	{
		[]string{"electronics", "camera", "phone", "laptop", "tablet"},
		"For electronics, focus on topics like: Battery, Performance, Build quality, Screen, Camera, Price, Delivery. Do NOT include irrelevant topics like Plot, Characters.",
	},
	{
		[]string{"clothing", "giyim", "shirt", "pants", "dress"},
		"For clothing, focus on topics like: Fit, Fabric quality, Size, Color, Style, Durability, Price. Do NOT include hardware topics like Battery, Screen, Performance.",
	},
	{
		[]string{"home", "kitchen", "furniture", "decoration"},
		"For home & kitchen, focus on topics like: Quality, Assembly, Size, Material, Price, Delivery, Packaging. Do NOT include irrelevant topics like Battery, Screen, Camera.",
	},
	{
		[]string{"sports", "outdoor", "shoes", "exercise"},
		"For sports & outdoors, focus on topics like: Durability, Comfort, Fit, Material, Performance, Price, Weather resistance. Do NOT include irrelevant topics like Battery, Screen, Camera.",
	},
}

const genericPromptHint = "For general products, focus on topics like: Quality, Price, Delivery, Packaging, Usability, Durability. Only include topics actually mentioned in reviews."

func promptHintFor(category string) string {
	c := strings.ToLower(category)
	for _, h := range promptHints {
		for _, m := range h.match {
			if strings.Contains(c, m) {
				return h.hint
			}
		}
	}
	return genericPromptHint
}
