package corpus

import "github.com/hyperjump/meetkant/internal/models"

// samplePassages is the built-in multilingual corpus used when no records are found on disk.
var samplePassages = []models.PassageRecord{
	{
		WorkID: "pure_reason",
		ParaID: "1",
		Lang:   "en",
		Text:   "The Critique of Pure Reason is Kant's major work in which he attempts to determine the limits and scope of metaphysics. He argues that while knowledge begins with experience, it does not all arise out of experience.",
	},
	{
		WorkID: "pure_reason",
		ParaID: "2",
		Lang:   "en",
		Text:   "Kant introduces the concept of the categorical imperative as a fundamental principle of morality. It is a command that applies to all rational beings regardless of their desires or inclinations.",
	},
	{
		WorkID: "pure_reason",
		ParaID: "3",
		Lang:   "zh",
		Text:   "《纯粹理性批判》是康德的主要著作，在书中他试图确定形而上学的界限和范围。他论证说，虽然知识始于经验，但并非全部源于经验。",
	},
	{
		WorkID: "pure_reason",
		ParaID: "4",
		Lang:   "zh",
		Text:   "康德引入了定言令式的概念，作为道德的根本原则。这是一种适用于所有理性存在的命令，不管他们的欲望或倾向如何。",
	},
	{
		WorkID: "pure_reason",
		ParaID: "5",
		Lang:   "de",
		Text:   "Die Kritik der reinen Vernunft ist das Hauptwerk Kants, in dem er zu bestimmen sucht, was Metaphysik sein kann. Er argumentiert, dass zwar alles Wissen mit der Erfahrung anfängt, aber nicht alles Wissen aus der Erfahrung entspringt.",
	},
	{
		WorkID: "practical_reason",
		ParaID: "1",
		Lang:   "en",
		Text:   "The Critique of Practical Reason focuses on the foundations of moral action. Kant argues that moral law is given by rational beings to themselves through the categorical imperative.",
	},
	{
		WorkID: "practical_reason",
		ParaID: "2",
		Lang:   "en",
		Text:   "Kant distinguishes between phenomenon and noumenon. The phenomenon is the world as we experience it, while the noumenon is the world of things-in-themselves, which we cannot directly know.",
	},
}

// SampleCatalog returns the built-in sample corpus.
func SampleCatalog() *Catalog {
	return newCatalog(samplePassages, true)
}
